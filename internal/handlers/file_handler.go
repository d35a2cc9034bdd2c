// File: internal/handlers/file_handler.go
package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/greyhelm/ttrpg-buddy/internal/services/files"
)

// FileHandler manages the reference documents stored with the assistant
// provider.
type FileHandler struct {
	Files *files.Service
}

func NewFileHandler(service *files.Service) *FileHandler {
	return &FileHandler{Files: service}
}

// Upload accepts one multipart file and stores it with the provider.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUsername(w, r); !ok {
		return
	}

	if err := r.ParseMultipartForm(files.MaxFileSize); err != nil {
		writeError(w, "File exceeds the upload limit", http.StatusRequestEntityTooLarge)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, "A 'file' form field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, files.MaxFileSize+1))
	if err != nil {
		writeError(w, "Could not read upload", http.StatusBadRequest)
		return
	}

	id, err := h.Files.Upload(r.Context(), header.Filename, data)
	if err != nil {
		var ferr *files.FileError
		if errors.As(err, &ferr) && ferr.Type == files.ErrTypeValidation {
			writeError(w, ferr.Message, http.StatusBadRequest)
			return
		}
		log.Printf("[FileHandler] upload failed: %v", err)
		writeError(w, "File upload failed", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"file_id": id, "name": header.Filename})
}

// List returns the stored documents.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUsername(w, r); !ok {
		return
	}

	infos, err := h.Files.List(r.Context())
	if err != nil {
		log.Printf("[FileHandler] list failed: %v", err)
		writeError(w, "Could not list files", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// Delete removes one stored document.
func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUsername(w, r); !ok {
		return
	}

	fileID := mux.Vars(r)["id"]
	if err := h.Files.Delete(r.Context(), fileID); err != nil {
		var ferr *files.FileError
		if errors.As(err, &ferr) && ferr.Type == files.ErrTypeValidation {
			writeError(w, ferr.Message, http.StatusBadRequest)
			return
		}
		log.Printf("[FileHandler] delete failed: %v", err)
		writeError(w, "Could not delete file", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
