package web

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/shopassist/internal/admin"
	"github.com/vbonduro/shopassist/internal/api"
)

const (
	maxUploadSize  = 50 * 1024 * 1024 // 50 MB per request
	maxUploadFiles = 20
)

// mediaTypes lists the formats the media library accepts, keyed by the
// type http.DetectContentType reports.
var mediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// sniffMedia reports the content type of an upload, or false when it is not
// an accepted image. WebP has no stdlib signature so it is checked by hand.
func sniffMedia(data []byte) (string, bool) {
	if len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP" {
		return "image/webp", true
	}
	if ct := http.DetectContentType(data); mediaTypes[ct] {
		return ct, true
	}
	return "", false
}

// handleMediaUpload forwards the "images" files to the backend. The declared
// content type is ignored; every file is sniffed and the whole upload is
// refused if any of them is not an image.
func (s *Server) handleMediaUpload(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		http.Error(w, "image file required", http.StatusBadRequest)
		return
	}
	if len(headers) > maxUploadFiles {
		http.Error(w, fmt.Sprintf("at most %d files per upload", maxUploadFiles), http.StatusBadRequest)
		return
	}

	files := make([]api.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "failed to read file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(f)
		closeWithLog(f, "upload file", s.logger)
		if err != nil {
			http.Error(w, "failed to read file", http.StatusInternalServerError)
			s.logger.Error("read upload failed", "file", fh.Filename, "error", err)
			return
		}
		contentType, ok := sniffMedia(data)
		if !ok {
			http.Error(w, fmt.Sprintf("%s: unsupported image format", fh.Filename), http.StatusBadRequest)
			return
		}
		files = append(files, api.File{Name: fh.Filename, ContentType: contentType, Data: data})
	}

	created, err := c.Workspace.Media.Upload(r.Context(), files)
	if err != nil {
		listFailed(s, w, r, c, mediaScreen, err)
		return
	}
	s.logger.Info("media uploaded", "count", len(created))
	renderList(s, w, r, c, mediaScreen, http.StatusOK, fmt.Sprintf("Uploaded %d file(s).", len(created)))
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
