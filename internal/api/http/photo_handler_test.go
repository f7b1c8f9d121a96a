package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpapi "trailerhub-backend/internal/api/http"
	"trailerhub-backend/internal/storage"
)

const baseURL = "http://photos.test"

func newPhotoRouter(t *testing.T) (*mux.Router, *storage.LocalStore) {
	t.Helper()
	store, err := storage.NewLocalStore(storage.Config{
		Dir:           t.TempDir(),
		BaseURL:       baseURL,
		SigningSecret: "photo-secret",
		URLExpiry:     time.Minute,
		MaxBytes:      32,
	})
	require.NoError(t, err)
	router := mux.NewRouter()
	httpapi.RegisterPhotoRoutes(router, store)
	return router, store
}

func put(router http.Handler, url, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, strings.TrimPrefix(url, baseURL), strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPhotoUpload_ThenDownload(t *testing.T) {
	router, store := newPhotoRouter(t)
	key := "damage/rental-1/scratch.png"

	url, _, err := store.UploadURL(context.Background(), key, "image/png")
	require.NoError(t, err)
	rec := put(router, url, "image/png", "png-bytes")
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(store.PublicURL(key), baseURL), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", rec.Body.String())
}

func TestPhotoUpload_Rejections(t *testing.T) {
	router, store := newPhotoRouter(t)
	url, _, err := store.UploadURL(context.Background(), "damage/rental-1/a.jpg", "image/jpeg")
	require.NoError(t, err)

	rec := put(router, baseURL+"/api/v1/uploads/not-a-grant", "image/jpeg", "x")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = put(router, url, "image/png", "x")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec = put(router, url, "image/jpeg", strings.Repeat("x", 33))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPhotoDownload_Missing(t *testing.T) {
	router, _ := newPhotoRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/photos/damage/rental-1/none.jpg", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
