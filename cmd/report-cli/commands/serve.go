package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/clearviewfp/report-engine/cmd/report-api/handlers"
	"github.com/clearviewfp/report-engine/cmd/report-cli/ui"
	"github.com/clearviewfp/report-engine/internal/assets"
	"github.com/clearviewfp/report-engine/internal/cache"
	"github.com/clearviewfp/report-engine/internal/config"
	"github.com/clearviewfp/report-engine/internal/extract"
	"github.com/clearviewfp/report-engine/internal/observability"
	"github.com/clearviewfp/report-engine/internal/pdftext"
	"github.com/clearviewfp/report-engine/internal/report"
	"github.com/clearviewfp/report-engine/internal/session"
)

// serveCacheEntries bounds the in-process extraction cache when Redis is
// not configured.
const serveCacheEntries = 10000

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the report API server",
	Long: `Serve starts the HTTP API with the same routes and middleware as the
report-api binary: session upload, retrieval, and report download.`,
	RunE: runServeCmd,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ui.InitUI(noColor, verbose)

	// Unlike the pipeline commands, the server keeps its configured log
	// level: request logs are the point of running it in a terminal.
	level := cfg.Observability.LogLevel
	if verbose {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      "console",
		ServiceName: "report-cli",
	})

	cacheClient := newServeCache(cfg)
	defer cacheClient.Close()

	renderer, err := report.NewRenderer(logger, assets.NewStore(cfg.Assets.Dir), cfg.Report.CompanyName, cfg.Report.AdviserName)
	if err != nil {
		return fmt.Errorf("initialize renderer: %w", err)
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

	router := handlers.NewRouter(logger, cfg, handlers.Dependencies{
		Sessions:  session.NewStore(),
		Extractor: extractor,
		Renderer:  renderer,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ui.Section("Report API")
	ui.KeyValue("Address", addr)
	ui.KeyValue("Cache", cfg.Cache.Driver)
	ui.KeyValue("Asset dir", cfg.Assets.Dir)
	ui.Newline()
	ui.Info("Press Ctrl+C to stop")

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		ui.Newline()
		ui.Info("Received %s, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		srv.Close()
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	ui.Success("Server stopped")
	return nil
}

// newServeCache builds the extraction cache from config, falling back to the
// in-process cache when Redis is unreachable so extraction still runs.
func newServeCache(cfg *config.Config) cache.Client {
	if cfg.Cache.Driver == "redis" {
		client, err := cache.NewRedisClient(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			PoolSize: cfg.Cache.Redis.PoolSize,
			Prefix:   cfg.Cache.KeyPrefix,
		})
		if err == nil {
			ui.Info("Using Redis extraction cache at %s", cfg.Cache.Redis.Addr)
			return client
		}
		ui.Warning("Redis unavailable, using in-process cache: %v", err)
	}
	return cache.NewMemoryClient(serveCacheEntries)
}
