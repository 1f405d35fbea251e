package worker

import (
	"errors"
	"fmt"
	"net/http"

	"contentstudio/internal/assembler"
	"contentstudio/internal/finalize"
	"contentstudio/internal/infra"
	"contentstudio/internal/metrics"
	"contentstudio/internal/pipeline"
	"contentstudio/internal/providers/functions"
	"contentstudio/internal/storage"
)

// Parts are the process-specific pieces of a pipeline. The worker passes the
// job repository as Sink and Marker; the CLI passes log and memory stand-ins.
type Parts struct {
	Store   storage.ObjectStore
	Sink    pipeline.ProgressSink
	Marker  finalize.ReadyMarker
	APIKey  string
	Metrics *metrics.Pipeline
	Logger  *infra.Logger
}

// NewOrchestrator wires the functions client, assembler and finalizer
// described by cfg into a pipeline.
func NewOrchestrator(cfg *infra.Config, parts Parts) (*pipeline.Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("worker: config is required")
	}
	if parts.Store == nil || parts.Marker == nil {
		return nil, errors.New("worker: store and ready marker are required")
	}

	presets, err := infra.LoadPresets(cfg.PresetsPath)
	if err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}

	client, err := functions.NewClient(functions.Options{
		APIKey:     parts.APIKey,
		BaseURL:    cfg.FunctionsBaseURL,
		Width:      cfg.VideoWidth,
		Height:     cfg.VideoHeight,
		Presets:    presets,
		HTTPClient: &http.Client{Timeout: cfg.FunctionsTimeout},
		Logger:     parts.Logger,
		Store:      parts.Store,
	})
	if err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	if client.Synthetic() && parts.Logger != nil {
		parts.Logger.Warn().Msg("worker: functions api key missing, using synthetic assets")
	}

	return pipeline.NewOrchestrator(pipeline.Deps{
		Script:   client,
		Scenes:   client,
		Voice:    client,
		Resolver: pipeline.NewResolver(parts.Store),
		Assembler: assembler.New(assembler.Options{
			FFmpegPath:  cfg.FFmpegPath,
			FFprobePath: cfg.FFprobePath,
			Logger:      parts.Logger,
		}),
		Finalizer: finalize.New(parts.Store, parts.Marker, parts.Logger),
		Sink:      parts.Sink,
		Video: pipeline.VideoSettings{
			Width:  cfg.VideoWidth,
			Height: cfg.VideoHeight,
			FPS:    cfg.VideoFPS,
		},
		Metrics: parts.Metrics,
		Logger:  parts.Logger,
	})
}
