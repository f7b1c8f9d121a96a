package http

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gorilla/mux"

	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/storage"
)

// PhotoHandler accepts uploads against signed grants and serves stored
// damage photos.
type PhotoHandler struct {
	store *storage.LocalStore
}

func NewPhotoHandler(store *storage.LocalStore) *PhotoHandler {
	return &PhotoHandler{store: store}
}

// HandleUpload handles PUT requests to upload URLs issued by the store
func (h *PhotoHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	grant, err := h.store.VerifyGrant(mux.Vars(r)["grant"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || contentType != grant.ContentType {
		http.Error(w, "content type does not match upload grant", http.StatusUnsupportedMediaType)
		return
	}

	n, err := h.store.Save(grant.Key, r.Body)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		logger.Error("Failed to store photo", "key", grant.Key, "error", err)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	logger.Info("Photo stored", "key", grant.Key, "bytes", n)
	w.WriteHeader(http.StatusOK)
}

// HandleDownload streams a stored photo
func (h *PhotoHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	file, err := h.store.Open(key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
			http.Error(w, "file not found", http.StatusNotFound)
			return
		}
		logger.Error("Failed to open photo", "key", key, "error", err)
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", storage.ContentType(key))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.Copy(w, file)
}

// RegisterPhotoRoutes mounts the upload and download endpoints backing
// the URLs handed out by store.
func RegisterPhotoRoutes(router *mux.Router, store *storage.LocalStore) {
	handler := NewPhotoHandler(store)
	router.HandleFunc("/api/v1/uploads/{grant}", handler.HandleUpload).Methods("PUT")
	router.HandleFunc("/api/v1/photos/{key:.+}", handler.HandleDownload).Methods("GET")
}
