package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/spherical/pdf-reader/internal/domain"
	"github.com/spherical/pdf-reader/internal/extract"
	"github.com/spherical/pdf-reader/internal/observability"
	"github.com/spherical/pdf-reader/internal/present"
)

// multipartSlack covers multipart framing on top of the file itself.
const multipartSlack = 1 << 20

// Handler serves the session endpoints.
type Handler struct {
	store     *SessionStore
	maxUpload int64
	logger    *observability.Logger
}

// NewHandler creates a handler. Uploads larger than twice maxSizeMB are cut
// off before reaching the validator.
func NewHandler(store *SessionStore, maxSizeMB float64, logger *observability.Logger) *Handler {
	return &Handler{
		store:     store,
		maxUpload: int64(2*maxSizeMB*1024*1024) + multipartSlack,
		logger:    logger.WithComponent("api"),
	}
}

// FileDTO describes the selected upload.
type FileDTO struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	PreviewURL  string `json:"previewUrl"`
}

// CanvasDTO describes one canvas slot.
type CanvasDTO struct {
	ID       int    `json:"id"`
	Rendered bool   `json:"rendered"`
	URL      string `json:"url,omitempty"`
}

// SessionDTO is the full presentation state of a session.
type SessionDTO struct {
	ID            string                `json:"id"`
	Mode          domain.Mode           `json:"mode"`
	Loading       bool                  `json:"loading"`
	Ready         bool                  `json:"ready"`
	File          *FileDTO              `json:"file,omitempty"`
	Canvases      []CanvasDTO           `json:"canvases"`
	Text          string                `json:"text"`
	HTML          string                `json:"html"`
	Images        []string              `json:"images"`
	Notifications []domain.Notification `json:"notifications"`
}

// CreateSession handles POST /api/v1/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, adapter, err := h.store.Create()
	if err != nil {
		h.writeError(w, http.StatusServiceUnavailable, "cannot open session", err)
		return
	}

	// Warm the shared engine; later sessions attach to the same attempt.
	go func() { _ = adapter.Bootstrap(context.WithoutCancel(r.Context())) }()

	h.logger.Info().Str("session_id", id).Msg("session opened")
	h.writeJSON(w, http.StatusCreated, h.snapshot(id, adapter))
}

// GetSession handles GET /api/v1/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, adapter, ok := h.session(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.snapshot(id, adapter))
}

// DeleteSession handles DELETE /api/v1/sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.Delete(id) {
		h.writeError(w, http.StatusNotFound, "session not found", nil)
		return
	}
	h.logger.Info().Str("session_id", id).Msg("session closed")
	w.WriteHeader(http.StatusNoContent)
}

// UploadFile handles PUT /api/v1/sessions/{id}/file with multipart field "file".
func (h *Handler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id, adapter, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			adapter.Notify("Error", "File is too large.", domain.SeverityError)
			h.writeError(w, http.StatusRequestEntityTooLarge, "upload too large", err)
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			h.writeError(w, http.StatusBadRequest, "invalid upload", err)
			return
		}
	}

	var file *domain.SourceFile
	part, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer part.Close()
		data, err := io.ReadAll(part)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "read upload", err)
			return
		}
		file = &domain.SourceFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Data:        data,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// Leave file nil: the adapter reports "no file selected".
	default:
		h.writeError(w, http.StatusBadRequest, "invalid upload", err)
		return
	}

	if err := adapter.SetFile(file); err != nil {
		h.writeError(w, statusFor(err), "file rejected", err)
		return
	}

	h.logger.Info().Str("session_id", id).Str("file", file.Name).Int64("size", file.Size).Msg("file selected")
	h.writeJSON(w, http.StatusOK, h.snapshot(id, adapter))
}

// GetFile handles GET /api/v1/sessions/{id}/file, serving the original upload.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	_, adapter, ok := h.session(w, r)
	if !ok {
		return
	}
	file, ok := adapter.Preview()
	if !ok {
		h.writeError(w, http.StatusNotFound, "no valid file selected", nil)
		return
	}
	w.Header().Set("Content-Type", domain.AcceptedContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	_, _ = w.Write(file.Data)
}

// RunMode handles POST /api/v1/sessions/{id}/modes/{mode}.
func (h *Handler) RunMode(w http.ResponseWriter, r *http.Request) {
	id, adapter, ok := h.session(w, r)
	if !ok {
		return
	}
	mode, err := domain.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid mode", err)
		return
	}

	// Runs are not cancellable once started.
	if _, err := adapter.Run(context.WithoutCancel(r.Context()), mode); err != nil {
		h.writeError(w, statusFor(err), "extraction failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.snapshot(id, adapter))
}

// GetCanvas handles GET /api/v1/sessions/{id}/canvases/{page}.
func (h *Handler) GetCanvas(w http.ResponseWriter, r *http.Request) {
	_, adapter, ok := h.session(w, r)
	if !ok {
		return
	}
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid page", err)
		return
	}
	surface, ok := adapter.Canvas(page)
	if !ok {
		h.writeError(w, http.StatusNotFound, "canvas not rendered", nil)
		return
	}
	data, err := extract.EncodePNG(surface)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "encode canvas", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (string, *present.Adapter, bool) {
	id := chi.URLParam(r, "id")
	adapter, ok := h.store.Get(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "session not found", nil)
		return "", nil, false
	}
	return id, adapter, true
}

func (h *Handler) snapshot(id string, a *present.Adapter) SessionDTO {
	dto := SessionDTO{
		ID:            id,
		Mode:          a.Mode(),
		Loading:       a.Loading(),
		Ready:         a.Ready(),
		Canvases:      []CanvasDTO{},
		Text:          a.Text(),
		HTML:          a.HTML(),
		Images:        a.Images(),
		Notifications: a.Notifications(),
	}
	if file, ok := a.Preview(); ok {
		dto.File = &FileDTO{
			Name:        file.Name,
			ContentType: file.ContentType,
			Size:        file.Size,
			PreviewURL:  fmt.Sprintf("/api/v1/sessions/%s/file", id),
		}
	}
	for _, c := range a.Canvases() {
		cd := CanvasDTO{ID: c.ID, Rendered: c.Surface != nil}
		if cd.Rendered {
			cd.URL = fmt.Sprintf("/api/v1/sessions/%s/canvases/%d", id, c.ID)
		}
		dto.Canvases = append(dto.Canvases, cd)
	}
	return dto
}

// statusFor maps domain failures onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotReady):
		return http.StatusServiceUnavailable
	case domain.IsType(err, domain.ErrorTypeValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn().Err(err).Msg("write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := map[string]string{"error": message}
	if err != nil {
		resp["detail"] = err.Error()
		var de *domain.DomainError
		if errors.As(err, &de) {
			resp["type"] = string(de.Type)
		}
	}
	h.writeJSON(w, status, resp)
}
