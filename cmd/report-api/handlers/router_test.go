package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearviewfp/report-engine/internal/assets"
	"github.com/clearviewfp/report-engine/internal/config"
	"github.com/clearviewfp/report-engine/internal/extract"
	"github.com/clearviewfp/report-engine/internal/report"
	"github.com/clearviewfp/report-engine/internal/session"
)

// newTestRouter mounts the full middleware chain and route table the
// binaries use, not the trimmed router the handler tests wire by hand.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := quietLogger()

	cfg := config.DefaultConfig()
	cfg.Upload.TempDir = t.TempDir()
	cfg.Assets.Dir = t.TempDir()

	extractor := extract.NewService(logger, extract.ServiceConfig{
		StatementCommand: "/bin/sh",
		StatementArgs:    []string{"-c", statementScript},
		ChartCommand:     "/bin/sh",
		ChartArgs:        []string{"-c", `printf '{"charts_extracted":false}'`},
		WorkerTimeout:    10 * time.Second,
		AssetDir:         cfg.Assets.Dir,
	}, passthroughText{}, nil)

	renderer, err := report.NewRenderer(logger, assets.NewStore(cfg.Assets.Dir), cfg.Report.CompanyName, cfg.Report.AdviserName)
	require.NoError(t, err)

	return NewRouter(logger, cfg, Dependencies{
		Sessions:  session.NewStore(),
		Extractor: extractor,
		Renderer:  renderer,
	})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestRouter_Ready(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRouter_UnknownRoute(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_SessionRoutesMounted(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartBody(t, []uploadPart{
		{name: "statement.pdf", mediaType: "application/pdf", content: "aj bell statement"},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
