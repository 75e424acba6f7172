package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/clearviewfp/report-engine/cmd/report-api/middleware"
	"github.com/clearviewfp/report-engine/internal/config"
	"github.com/clearviewfp/report-engine/internal/extract"
	"github.com/clearviewfp/report-engine/internal/observability"
	"github.com/clearviewfp/report-engine/internal/report"
	"github.com/clearviewfp/report-engine/internal/session"
)

// Dependencies carries the long-lived services the handlers share. They are
// constructed by the caller so shutdown can close the ones holding
// connections.
type Dependencies struct {
	Sessions  *session.Store
	Extractor *extract.Service
	Renderer  *report.Renderer
}

// NewRouter creates the main API router with all routes configured. Both the
// report-api binary and the CLI serve command mount this.
func NewRouter(logger *observability.Logger, cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestContext)
	r.Use(chimiddleware.Logger) // Use chi's built-in logger
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"report-engine"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ready"}`))
	})

	// Initialize handlers
	sessionHandler := NewSessionHandler(logger, deps.Sessions, deps.Extractor, cfg.Upload.MaxFileBytes, cfg.Upload.TempDir)
	reportHandler := NewReportHandler(logger, deps.Sessions, deps.Renderer)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Get("/", sessionHandler.List)
			r.Get("/{sessionID}", sessionHandler.Get)
			r.Get("/{sessionID}/report", reportHandler.Download)
		})
	})

	return r
}
