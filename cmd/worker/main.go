package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contentstudio/internal/adapter/repo"
	"contentstudio/internal/infra"
	"contentstudio/internal/infra/credentials"
	"contentstudio/internal/metrics"
	"contentstudio/internal/pipeline"
	"contentstudio/internal/storage"
	"contentstudio/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner)

	// Jobs left in processing by a crashed worker become retryable.
	if n, err := jobs.FailStale(ctx, 2*cfg.JobTimeout); err != nil {
		logger.Warn().Err(err).Msg("worker: failed to reap stale jobs")
	} else if n > 0 {
		logger.Warn().Int64("jobs", n).Msg("worker: marked stale jobs failed")
	}

	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	apiKey := strings.TrimSpace(cfg.FunctionsAPIKey)
	if apiKey == "" {
		keyFromStore, err := credentials.NewStore(runner).FunctionsAPIKey(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("worker: failed to load functions api key from store")
		} else {
			apiKey = keyFromStore
		}
	}

	pipelineMetrics := metrics.NewPipeline()
	registry := metrics.NewRegistry(pipelineMetrics.Collectors()...)
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	metricsServer := infra.NewSideServer(cfg.MetricsPort, mux)
	go func() {
		logger.Info().Str("addr", metricsServer.Addr()).Msg("worker: metrics listening")
		if err := metricsServer.Start(); err != nil {
			logger.Error().Err(err).Msg("worker: metrics server failed")
		}
	}()

	orchestrator, err := worker.NewOrchestrator(cfg, worker.Parts{
		Store:   store,
		Sink:    pipeline.RepositorySink{Jobs: jobs},
		Marker:  jobs,
		APIKey:  apiKey,
		Metrics: pipelineMetrics,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure pipeline")
	}

	w := worker.New(jobs, orchestrator, worker.Options{
		Concurrency: cfg.WorkerConcurrency,
		JobTimeout:  cfg.JobTimeout,
		Logger:      &logger,
	})
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker: stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	logger.Info().Msg("worker: stopped")
}
