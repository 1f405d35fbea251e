package assembler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// probeDuration reads the container duration of a media file with ffprobe.
func (a *Assembler) probeDuration(ctx context.Context, ffprobe, path string) (time.Duration, error) {
	out, stderr, err := a.runner.Run(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, tail(stderr))
	}
	raw := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: unreadable duration %q", raw)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// tail returns the last lines of process output for error messages.
func tail(b []byte) string {
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
