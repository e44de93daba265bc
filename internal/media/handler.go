package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"

	"blog-api/internal/respond"
)

const maxUploadSizeBytes = 10 << 20

type ImageUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
}

// UploadHandler accepts a multipart image file and returns the hosted URL,
// for clients that want to upload a banner before creating the blog.
type UploadHandler struct {
	uploader ImageUploader
}

func NewUploadHandler(uploader ImageUploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSizeBytes); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "File is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "Failed to read file")
		return
	}
	if len(data) == 0 {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "File is empty")
		return
	}
	if len(data) > maxUploadSizeBytes {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "File is too large")
		return
	}

	contentType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidRequest, "File must be an image")
		return
	}

	imageSource := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	secureURL, err := h.uploader.UploadImage(r.Context(), imageSource)
	if err != nil {
		sentry.CaptureException(err)
		respond.Error(w, http.StatusBadGateway, respond.CodeServerError, "Failed to upload image")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"url": secureURL})
}
