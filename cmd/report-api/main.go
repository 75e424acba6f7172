// Package main provides the report API server entrypoint.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/clearviewfp/report-engine/cmd/report-api/handlers"
	"github.com/clearviewfp/report-engine/internal/assets"
	"github.com/clearviewfp/report-engine/internal/cache"
	"github.com/clearviewfp/report-engine/internal/config"
	"github.com/clearviewfp/report-engine/internal/extract"
	"github.com/clearviewfp/report-engine/internal/observability"
	"github.com/clearviewfp/report-engine/internal/pdftext"
	"github.com/clearviewfp/report-engine/internal/report"
	"github.com/clearviewfp/report-engine/internal/session"
)

// memoryCacheEntries bounds the in-process extraction cache when Redis is
// not configured.
const memoryCacheEntries = 10000

func main() {
	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: "report-api",
	})

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Driver).
		Str("asset_dir", cfg.Assets.Dir).
		Msg("Starting report API")

	// Build shared services
	cacheClient := newCacheClient(logger, cfg)
	defer cacheClient.Close()

	assetStore := assets.NewStore(cfg.Assets.Dir)

	renderer, err := report.NewRenderer(logger, assetStore, cfg.Report.CompanyName, cfg.Report.AdviserName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize renderer: %v\n", err)
		os.Exit(1)
	}

	extractor := extract.NewService(logger, extract.ServiceConfig{
		StatementCommand: cfg.Workers.Statement.Command,
		StatementArgs:    cfg.Workers.Statement.Args,
		ChartCommand:     cfg.Workers.Chart.Command,
		ChartArgs:        cfg.Workers.Chart.Args,
		WorkerTimeout:    cfg.Workers.Timeout,
		AssetDir:         cfg.Assets.Dir,
		CacheTTL:         cfg.Cache.TTL,
	}, pdftext.NewExtractor(), cacheClient)

	deps := handlers.Dependencies{
		Sessions:  session.NewStore(),
		Extractor: extractor,
		Renderer:  renderer,
	}

	// Initialize router with all handlers
	router := handlers.NewRouter(logger, cfg, deps)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt or error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("Server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}

// newCacheClient builds the extraction cache from config, falling back to
// the in-process cache when Redis is unreachable so extraction still runs.
func newCacheClient(logger *observability.Logger, cfg *config.Config) cache.Client {
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.KeyPrefix,
		})
		if err == nil {
			logger.Info().Str("addr", cfg.Cache.Redis.Addr).Msg("Using Redis extraction cache")
			return client
		}
		logger.Warn().Err(err).Msg("Redis unavailable, using in-process cache")
	}
	return cache.NewMemoryClient(memoryCacheEntries)
}
