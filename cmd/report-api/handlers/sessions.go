// Package handlers implements the HTTP handlers for the report API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clearviewfp/report-engine/internal/domain"
	"github.com/clearviewfp/report-engine/internal/extract"
	"github.com/clearviewfp/report-engine/internal/observability"
	"github.com/clearviewfp/report-engine/internal/session"
)

// multipartMemoryLimit is how much of a parsed upload stays in memory
// before the stdlib spills parts to temp files.
const multipartMemoryLimit = 32 << 20

// uploadFieldName is the form field carrying the document files.
const uploadFieldName = "files"

// SessionHandler handles upload session requests.
type SessionHandler struct {
	logger       *observability.Logger
	store        *session.Store
	extractor    *extract.Service
	maxFileBytes int64
	tempDir      string
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(logger *observability.Logger, store *session.Store, extractor *extract.Service, maxFileBytes int64, tempDir string) *SessionHandler {
	return &SessionHandler{
		logger:       logger,
		store:        store,
		extractor:    extractor,
		maxFileBytes: maxFileBytes,
		tempDir:      tempDir,
	}
}

// UploadResponseDTO is the response body for a completed upload.
type UploadResponseDTO struct {
	SessionID string                   `json:"sessionId"`
	CreatedAt time.Time                `json:"createdAt"`
	Files     []domain.FileDescriptor  `json:"files"`
	Summary   domain.ExtractionSummary `json:"summary"`
}

// SessionListDTO is the response body for the session index.
type SessionListDTO struct {
	Count    int              `json:"count"`
	Sessions []SessionItemDTO `json:"sessions"`
}

// SessionItemDTO is one row in the session index.
type SessionItemDTO struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	FileCount  int       `json:"fileCount"`
	HasSummary bool      `json:"hasSummary"`
}

// Create handles POST /api/v1/sessions. It accepts a multipart batch of
// provider documents, runs extraction synchronously, and returns the new
// session with its aggregated summary.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.logger.WithContext(ctx)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request", err.Error())
		return
	}

	parts := r.MultipartForm.File[uploadFieldName]
	if len(parts) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded",
			fmt.Sprintf("send one or more documents in the %q form field", uploadFieldName))
		return
	}

	// The per-file ceiling is checked before anything is stored so an
	// oversized batch leaves no session behind.
	for _, part := range parts {
		if part.Size > h.maxFileBytes {
			writeError(w, http.StatusBadRequest, "file too large",
				fmt.Sprintf("%s is %d bytes; the per-file limit is %d", part.Filename, part.Size, h.maxFileBytes))
			return
		}
	}

	batchDir, err := os.MkdirTemp(h.tempDir, "upload-")
	if err != nil {
		log.Error().Err(err).Msg("Failed to create upload directory")
		writeError(w, http.StatusInternalServerError, "failed to store upload", "")
		return
	}
	// Upload bytes are only needed for the synchronous extraction pass.
	defer os.RemoveAll(batchDir)

	files := make([]domain.FileDescriptor, 0, len(parts))
	for _, part := range parts {
		fd, err := h.saveUpload(batchDir, part)
		if err != nil {
			log.Error().Err(err).Str("file", part.Filename).Msg("Failed to store upload")
			writeError(w, http.StatusInternalServerError, "failed to store upload", part.Filename)
			return
		}
		files = append(files, fd)
	}

	sess := h.store.Create(files)
	log = log.WithSession(sess.ID)

	summary, err := h.extractor.ProcessSession(ctx, sess)
	if err != nil {
		log.Error().Err(err).Msg("Extraction failed")
		writeError(w, http.StatusInternalServerError, "extraction failed", err.Error())
		return
	}

	if err := h.store.SetSummary(sess.ID, &summary); err != nil {
		log.Error().Err(err).Msg("Failed to record summary")
		writeError(w, http.StatusInternalServerError, "failed to record summary", "")
		return
	}

	log.Info().
		Int("files", len(files)).
		Int("accounts", len(summary.Accounts)).
		Bool("charts_extracted", summary.ChartsExtracted).
		Msg("Upload session complete")

	resp := UploadResponseDTO{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt,
		Files:     sess.Files,
		Summary:   summary,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Get handles GET /api/v1/sessions/{sessionID}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// List handles GET /api/v1/sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions := h.store.List()

	resp := SessionListDTO{
		Count:    len(sessions),
		Sessions: make([]SessionItemDTO, 0, len(sessions)),
	}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, SessionItemDTO{
			ID:         sess.ID,
			CreatedAt:  sess.CreatedAt,
			FileCount:  len(sess.Files),
			HasSummary: sess.Summary != nil,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.WithContext(r.Context()).Error().Err(err).Msg("Failed to encode response")
	}
}

// saveUpload copies one multipart file part into the batch directory and
// returns its descriptor. The stored name is the generated file ID so
// hostile original names never reach the filesystem.
func (h *SessionHandler) saveUpload(dir string, part *multipart.FileHeader) (domain.FileDescriptor, error) {
	src, err := part.Open()
	if err != nil {
		return domain.FileDescriptor{}, fmt.Errorf("open part %s: %w", part.Filename, err)
	}
	defer src.Close()

	id := uuid.NewString()
	dest := filepath.Join(dir, id+strings.ToLower(filepath.Ext(part.Filename)))

	out, err := os.Create(dest)
	if err != nil {
		return domain.FileDescriptor{}, fmt.Errorf("create %s: %w", dest, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return domain.FileDescriptor{}, fmt.Errorf("write %s: %w", dest, err)
	}

	return domain.FileDescriptor{
		ID:           id,
		OriginalName: filepath.Base(part.Filename),
		MediaType:    part.Header.Get("Content-Type"),
		Size:         part.Size,
		StoragePath:  dest,
	}, nil
}

// writeError sends a JSON error body. The detail key is omitted when empty.
func writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := map[string]string{"error": message}
	if detail != "" {
		resp["detail"] = detail
	}
	json.NewEncoder(w).Encode(resp)
}
