package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docintake/internal/auth"
	"github.com/nikhilbhutani/docintake/internal/document"
	"github.com/nikhilbhutani/docintake/internal/models"
)

type DocumentService interface {
	Analyze(ctx context.Context, req document.UploadRequest) (*document.Response, error)
	History(ctx context.Context, userID uuid.UUID) ([]models.Analysis, error)
}

type DocumentHandler struct {
	svc       DocumentService
	maxUpload int64
}

func NewDocumentHandler(svc DocumentService, maxUpload int64) *DocumentHandler {
	if maxUpload <= 0 {
		maxUpload = 20 << 20
	}
	return &DocumentHandler{svc: svc, maxUpload: maxUpload}
}

// AnalyzeFile accepts a multipart upload with a "file" part and an optional
// "language" field.
func (h *DocumentHandler) AnalyzeFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file required")
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload")
		return
	}

	language := r.FormValue("language")
	if language == "" {
		language = "en"
	}

	resp, err := h.svc.Analyze(r.Context(), document.UploadRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
		Language:    language,
		Owner:       auth.UserFromContext(r.Context()),
	})
	switch {
	case errors.Is(err, document.ErrNoProviders):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("file analysis failed", "file", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *DocumentHandler) History(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.History(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		slog.Error("analysis history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get analysis history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "count": len(list), "analyses": list})
}
