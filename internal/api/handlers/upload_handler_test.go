package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/api/handlers"
)

func TestUploadHandler_Upload(t *testing.T) {
	uploader := new(MockImageUploader)
	handler := handlers.NewUploadHandler(uploader)

	uploader.On("Upload", mock.Anything, []byte("image-bytes"), "file.png").
		Return("https://res.cloudinary.com/demo/image/upload/v1/service_marketplace/file.png", nil)

	req := asPrincipal(multipartRequest(t, http.MethodPost, "/api/upload", nil,
		map[string][]byte{"file": []byte("image-bytes")}), alice)
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/service_marketplace/file.png", decodeBody(t, w.Body)["url"])
	uploader.AssertExpectations(t)
}

func TestUploadHandler_MissingFile(t *testing.T) {
	uploader := new(MockImageUploader)
	handler := handlers.NewUploadHandler(uploader)

	req := asPrincipal(multipartRequest(t, http.MethodPost, "/api/upload",
		map[string]string{"note": "no file"}, nil), alice)
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", decodeBody(t, w.Body)["message"])
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadHandler_TooLarge(t *testing.T) {
	uploader := new(MockImageUploader)
	handler := handlers.NewUploadHandler(uploader)

	big := bytes.Repeat([]byte("x"), 10<<20+1)
	req := asPrincipal(multipartRequest(t, http.MethodPost, "/api/upload", nil,
		map[string][]byte{"file": big}), alice)
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadHandler_StorageFailure(t *testing.T) {
	uploader := new(MockImageUploader)
	handler := handlers.NewUploadHandler(uploader)

	uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return("", assert.AnError)

	req := asPrincipal(multipartRequest(t, http.MethodPost, "/api/upload", nil,
		map[string][]byte{"file": []byte("image-bytes")}), alice)
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestUploadHandler_RequiresAuthentication(t *testing.T) {
	handler := handlers.NewUploadHandler(new(MockImageUploader))

	req := multipartRequest(t, http.MethodPost, "/api/upload", nil, map[string][]byte{"file": []byte("x")})
	w := httptest.NewRecorder()
	handler.Upload(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
