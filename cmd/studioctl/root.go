package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"contentstudio/internal/adapter/repo"
	"contentstudio/internal/infra"
)

var outputLocale string

var rootCmd = &cobra.Command{
	Use:          "studioctl",
	Short:        "Operate the content studio video pipeline",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd, enqueueCmd, retryCmd, statusCmd, setKeyCmd, migrateCmd, tokenCmd)

	rootCmd.PersistentFlags().StringVar(&outputLocale, "locale", "en", "Locale of step labels (en or id)")
}

// database opens the pool and repository for commands that need Postgres.
// The returned close function releases the pool.
func database(ctx context.Context) (*infra.SQLRunner, *repo.JobRepositoryPG, func(), error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger := infra.NewLogger(cfg.AppEnv, "studioctl")
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	runner := infra.NewSQLRunner(pool, logger)
	return runner, repo.NewJobRepository(runner), pool.Close, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
