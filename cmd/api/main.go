package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contentstudio/internal/adapter/repo"
	"contentstudio/internal/events"
	"contentstudio/internal/http/handlers"
	httpapi "contentstudio/internal/http/httpapi"
	"contentstudio/internal/infra"
	"contentstudio/internal/infra/credentials"
	"contentstudio/internal/infra/geoip"
	"contentstudio/internal/metrics"
	"contentstudio/internal/publish"
	"contentstudio/internal/storage"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	jobs := repo.NewJobRepository(runner)

	store, err := storage.New(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	geo, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer geo.Close()

	// Progress notifications from the worker reach SSE clients through the broker.
	broker := events.NewBroker()
	defer broker.Close()
	listener := &events.Listener{Pool: dbpool, Broker: broker, Logger: logger}
	go func() {
		if err := listener.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("progress listener stopped")
		}
	}()

	uploader := publish.NewYouTubeUploader(publish.YouTubeOptions{
		ClientID:     cfg.YouTubeClientID,
		ClientSecret: cfg.YouTubeClientSecret,
		Tokens:       credentials.NewStore(runner),
	})
	publisher := publish.NewPublisher(jobs, store, uploader, &logger)

	httpMetrics := metrics.NewMiddleware("api")
	registry := metrics.NewRegistry(httpMetrics.Collectors()...)

	app := handlers.NewApp(logger, jobs, store, broker, publisher, dbpool)

	opts := httpapi.Options{
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		DefaultLocale:   cfg.DefaultLocale,
		CountryLookup:   geo.Lookup(),
		RateLimitPerMin: cfg.RateLimitPerMin,
		Metrics:         httpMetrics,
		MetricsHandler:  metrics.Handler(registry),
	}
	if cfg.StorageDriver == "fs" {
		opts.StaticDir = cfg.StoragePath
	}
	router := httpapi.NewRouter(app, opts)

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
