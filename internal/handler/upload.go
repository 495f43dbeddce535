package handler

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/DulakshanaMalith/Photography-Learning/internal/fileserver"
	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
)

// UploadHandler exposes the attachment side channel over HTTP.
type UploadHandler struct {
	files *fileserver.Service
}

func NewUploadHandler(files *fileserver.Service) *UploadHandler {
	return &UploadHandler{files: files}
}

// Upload accepts a multipart form with a "file" part and returns the URL the
// stored file is reachable at. The caller puts that URL into a message body.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.files.MaxUploadSize)
	if err := r.ParseMultipartForm(h.files.MaxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	url, err := h.files.Store(file, filepath.Ext(header.Filename))
	if err != nil {
		logger.Errorf("upload: %v", err)
		writeError(w, http.StatusBadRequest, "upload rejected")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"url":       url,
		"file_name": header.Filename,
		"file_size": header.Size,
	})
}

// Serve streams a previously uploaded file.
func (h *UploadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, err := h.files.Open(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "file not readable")
		return
	}
	http.ServeContent(w, r, name, stat.ModTime(), f)
}
