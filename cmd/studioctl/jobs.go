package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"contentstudio/internal/domain"
	"contentstudio/internal/pipeline"
)

var (
	enqueueParams domain.JobParams
	enqueueUser   string
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Queue a video job for the worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := enqueueParams
		params.Normalize()
		if params.BusinessName == "" {
			return errors.New("--business must not be empty")
		}
		_, jobs, closeDB, err := database(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		job := &domain.Job{
			ID:           uuid.NewString(),
			UserID:       enqueueUser,
			BusinessName: params.BusinessName,
			Style:        params.Style,
			VoiceID:      params.VoiceID,
			Status:       domain.JobStatusQueued,
			Step:         domain.StepScripting,
		}
		if err := jobs.Create(cmd.Context(), job); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), pipeline.Snapshot(job, outputLocale))
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry <job-id>",
	Short: "Re-queue a failed or ready job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := uuid.Parse(args[0]); err != nil {
			return fmt.Errorf("invalid job id %q", args[0])
		}
		_, jobs, closeDB, err := database(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		job, err := jobs.ResetForRetry(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), pipeline.Snapshot(job, outputLocale))
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the progress of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := uuid.Parse(args[0]); err != nil {
			return fmt.Errorf("invalid job id %q", args[0])
		}
		_, jobs, closeDB, err := database(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()

		job, err := jobs.GetByID(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), pipeline.Snapshot(job, outputLocale))
	},
}

func init() {
	enqueueCmd.Flags().StringVar(&enqueueParams.BusinessName, "business", "", "Business name the video is about")
	enqueueCmd.Flags().StringVar(&enqueueParams.Style, "style", "", "Visual style preset")
	enqueueCmd.Flags().StringVar(&enqueueParams.VoiceID, "voice", "", "Voice id for the voiceover")
	enqueueCmd.Flags().StringVar(&enqueueUser, "user", "operator", "Owner of the job")
	_ = enqueueCmd.MarkFlagRequired("business")
}
