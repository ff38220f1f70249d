package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/beanbook/beanbook/internal/handler/dto"
)

// Multipart field names for uploads.
const (
	imageFormField = "image"
	kindFormField  = "kind"
)

// multipartMemory is the part of a multipart form kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// Images is the image surface the HTTP layer needs.
type Images interface {
	Upload(ctx context.Context, userID, kind string, body io.Reader) (string, error)
	StockAvatars(ctx context.Context) ([]string, error)
}

// ImageHandler handles picture uploads.
type ImageHandler struct {
	images Images
	logger *slog.Logger
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images Images, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		images: images,
		logger: logger.With("component", "handler.image"),
	}
}

// Upload handles POST /api/v1/images (multipart: image file, kind field).
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Image exceeds maximum size")
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_FORM", "Expected a multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, _, err := r.FormFile(imageFormField)
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_IMAGE", "Form field \"image\" is required")
		return
	}
	defer file.Close()

	url, err := h.images.Upload(r.Context(), s.UserID, r.FormValue(kindFormField), file)
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.ImageResponse{URL: url})
}

// Avatars handles GET /api/v1/avatars.
func (h *ImageHandler) Avatars(w http.ResponseWriter, r *http.Request) {
	urls, err := h.images.StockAvatars(r.Context())
	if err != nil {
		serviceError(w, h.logger, err)
		return
	}
	if urls == nil {
		urls = []string{}
	}
	writeJSON(w, http.StatusOK, dto.AvatarsResponse{URLs: urls})
}
