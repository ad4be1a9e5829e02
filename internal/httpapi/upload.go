package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const maxUploadBytes = 20 << 20 // 20 MiB per file

// handleUploadImage implements POST /api/upload/image (§6): stores the
// uploaded file under the configured uploads directory and returns
// {url, name} for embedding in a message's metadata.images.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if s.uploadsDir == "" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"kind": "Internal", "reason": "image uploads are not configured"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"kind": "InvalidInput", "reason": "malformed multipart body"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"kind": "InvalidInput", "reason": "missing \"file\" field"})
		return
	}
	defer file.Close()

	id := uuid.New().String()
	dir := filepath.Join(s.uploadsDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"kind": "Internal", "reason": err.Error()})
		return
	}

	dest := filepath.Join(dir, filepath.Base(header.Filename))
	out, err := os.Create(dest)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"kind": "Internal", "reason": err.Error()})
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"kind": "Internal", "reason": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"url":  fmt.Sprintf("/uploads/%s/%s", id, filepath.Base(header.Filename)),
		"name": header.Filename,
	})
}
