package journal

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ayush/travel-journal/backend/internal/common"
	"github.com/ayush/travel-journal/backend/internal/models"
	"github.com/ayush/travel-journal/backend/internal/respond"
)

// MaxCoverSize bounds a cover upload.
const MaxCoverSize = 10 << 20

// Handler holds journal HTTP handlers.
type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "journal not found")
	case errors.Is(err, common.ErrValidation):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCoversDisabled):
		respond.Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error("journal request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		respond.Internal(w)
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.JournalInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	j, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"journal": j})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	journals, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"journals": journals})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"journal": j})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateJournalRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	j, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req.JournalPatch, req.RegenerateAI)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"journal": j})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"journal": j})
}

func (h *Handler) Summaries(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Summaries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"summaries": recs})
}

// Summarize generates a summary for an unsaved entry. Any generator failure
// is a 500.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	var in models.JournalInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	text, err := h.svc.Summarize(r.Context(), inputFromEntry(in))
	if err != nil {
		h.log.Error("summarize failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to generate summary")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"aiSummary": text})
}

// UploadCover accepts a multipart image in the "file" field.
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxCoverSize+1<<20)
	if err := r.ParseMultipartForm(MaxCoverSize); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respond.Error(w, http.StatusBadRequest, "file must be an image")
		return
	}

	j, err := h.svc.SetCover(r.Context(), chi.URLParam(r, "id"), file, header.Size, contentType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"journal": j})
}

func (h *Handler) DownloadCover(w http.ResponseWriter, r *http.Request) {
	body, contentType, size, err := h.svc.Cover(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.log.Warn("cover stream interrupted", zap.Error(err))
	}
}
