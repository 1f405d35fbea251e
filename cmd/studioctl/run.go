package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"contentstudio/internal/domain"
	"contentstudio/internal/finalize"
	"contentstudio/internal/infra"
	"contentstudio/internal/pipeline"
	"contentstudio/internal/storage"
	"contentstudio/internal/worker"
)

var runParams domain.JobParams

// runCmd executes one pipeline in-process against local storage. Progress
// goes to the log instead of a job record.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate one video locally without the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := infra.LoadLocalConfig()
		if err != nil {
			return err
		}
		logger := infra.NewLogger(cfg.AppEnv, "studioctl")

		baseURL, err := localBaseURL(cfg)
		if err != nil {
			return err
		}
		store, err := storage.NewFileStore(cfg.StoragePath, baseURL)
		if err != nil {
			return err
		}
		marker := &finalize.MemoryMarker{}
		orchestrator, err := worker.NewOrchestrator(cfg, worker.Parts{
			Store:  store,
			Sink:   pipeline.LogSink{Logger: logger},
			Marker: marker,
			APIKey: cfg.FunctionsAPIKey,
			Logger: &logger,
		})
		if err != nil {
			return err
		}

		params := runParams
		params.Normalize()
		job := &domain.Job{
			ID:           uuid.NewString(),
			UserID:       "cli",
			BusinessName: params.BusinessName,
			Style:        params.Style,
			VoiceID:      params.VoiceID,
			Status:       domain.JobStatusProcessing,
		}

		ctx := cmd.Context()
		if cfg.JobTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.JobTimeout)
			defer cancel()
		}
		videoURL, err := orchestrator.Run(ctx, job)
		if err != nil {
			return err
		}
		result := marker.Results[job.ID]
		fmt.Fprintf(cmd.OutOrStdout(), "job %s ready: %s (%d bytes, %d scenes)\n", job.ID, videoURL, result.SizeBytes, len(result.ScenePaths))
		return nil
	},
}

// localBaseURL points asset URLs straight at the storage directory unless
// STORAGE_BASE_URL is set, since no API serves /static during a local run.
func localBaseURL(cfg *infra.Config) (string, error) {
	if os.Getenv("STORAGE_BASE_URL") != "" {
		return cfg.StorageBaseURL, nil
	}
	abs, err := filepath.Abs(cfg.StoragePath)
	if err != nil {
		return "", fmt.Errorf("resolve storage path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}

func init() {
	runCmd.Flags().StringVar(&runParams.BusinessName, "business", "", "Business name the video is about")
	runCmd.Flags().StringVar(&runParams.Style, "style", "", "Visual style preset")
	runCmd.Flags().StringVar(&runParams.VoiceID, "voice", "", "Voice id for the voiceover")
	_ = runCmd.MarkFlagRequired("business")
}
