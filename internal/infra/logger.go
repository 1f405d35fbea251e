package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so packages outside infra can accept a logger
// without importing the third-party module directly.
type Logger = zerolog.Logger

// NewLogger constructs the process logger. Development builds log to a
// console writer at debug level; everything else emits JSON at info level.
func NewLogger(appEnv, service string) Logger {
	level := zerolog.InfoLevel
	var out io.Writer = os.Stdout
	if appEnv == "development" {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if service != "" {
		ctx = ctx.Str("service", service)
	}
	return ctx.Logger()
}

// NopLogger returns a logger that discards everything, for tests and optional
// dependencies.
func NopLogger() Logger {
	return zerolog.Nop()
}
