package handlers

import (
	"net/http"

	"github.com/zatekoja/servicehub/internal/domain/providers"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// UploadHandler stores a single image and returns its public URL
type UploadHandler struct {
	uploader providers.ImageUploader
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploader providers.ImageUploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// Upload handles POST /api/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, err := principal(r); err != nil {
		respondWithError(w, r, err)
		return
	}
	if !isMultipart(r) {
		respondWithError(w, r, apperrors.NewValidationError("No file uploaded").WithField("file", "file is required"))
		return
	}
	if err := parseMultipart(w, r); err != nil {
		respondWithError(w, r, err)
		return
	}

	image, err := formImage(r, "file")
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	if image.Empty() {
		respondWithError(w, r, apperrors.NewValidationError("No file uploaded").WithField("file", "file is required"))
		return
	}
	if h.uploader == nil {
		respondWithError(w, r, apperrors.NewExternalError("Image storage is not configured", nil))
		return
	}

	url, err := h.uploader.Upload(r.Context(), image.Data, image.Filename)
	if err != nil {
		respondWithError(w, r, apperrors.NewExternalError("Image upload failed", err))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"url": url})
}
