package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearviewfp/report-engine/internal/observability"
	"github.com/clearviewfp/report-engine/internal/report"
	"github.com/clearviewfp/report-engine/internal/session"
)

// ReportHandler handles report download requests.
type ReportHandler struct {
	logger   *observability.Logger
	store    *session.Store
	renderer *report.Renderer
}

// NewReportHandler creates a new report handler.
func NewReportHandler(logger *observability.Logger, store *session.Store, renderer *report.Renderer) *ReportHandler {
	return &ReportHandler{
		logger:   logger,
		store:    store,
		renderer: renderer,
	}
}

// Download handles GET /api/v1/sessions/{sessionID}/report. It renders the
// session summary as a self-contained HTML document.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	log := h.logger.WithContext(r.Context())

	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "sessionID is required", "")
		return
	}

	sess, err := h.store.Get(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, http.StatusNotFound, "session not found", sessionID)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load session", err.Error())
		return
	}

	if sess.Summary == nil {
		writeError(w, http.StatusConflict, "report not ready", "session has no extraction summary")
		return
	}

	doc, err := h.renderer.Render(*sess.Summary)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("Report render failed")
		writeError(w, http.StatusInternalServerError, "report render failed", "")
		return
	}

	log.Info().
		Str("session_id", sessionID).
		Int("bytes", len(doc)).
		Msg("Report downloaded")

	filename := fmt.Sprintf("financial_report_%s.html", sessionID)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(doc)
}
