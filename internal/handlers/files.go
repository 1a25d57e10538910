package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/qbank-io/apiserver/internal/storage"
)

const maxUploadBytes = 32 << 20

// FileHandler provides attachment upload and retrieval endpoints.
type FileHandler struct {
	attachments *storage.Attachments
}

func NewFileHandler(attachments *storage.Attachments) *FileHandler {
	return &FileHandler{attachments: attachments}
}

// UploadResponse reports where an uploaded attachment was stored.
type UploadResponse struct {
	Filename string `json:"filename"`
	FilePath string `json:"file_path"`
	Message  string `json:"message"`
}

// Upload accepts a multipart image upload, stores it under a generated
// unique key and returns that key.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	key, err := h.attachments.Save(r.Context(), file, header.Size, header.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFileType) {
			writeError(w, http.StatusBadRequest, "invalid file type, only image files are allowed")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not save file")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Filename: header.Filename,
		FilePath: key,
		Message:  "file uploaded successfully",
	})
}

// Serve streams a stored attachment by its key.
func (h *FileHandler) Serve(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		writeError(w, http.StatusBadRequest, "file path is required")
		return
	}

	reader, err := h.attachments.Open(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	defer reader.Close()

	// Object-store backends only surface a missing key on first read.
	data, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
