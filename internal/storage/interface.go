package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"
)

var (
	ErrInvalidKey      = errors.New("invalid storage key")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrTooLarge        = errors.New("upload exceeds size limit")
	ErrInvalidGrant    = errors.New("invalid upload grant")
	ErrGrantExpired    = errors.New("upload grant has expired")
	ErrNotFound        = errors.New("file not found")
)

// PhotoStore issues upload URLs for damage photos. Clients PUT the bytes to
// the upload URL and attach the public URL to their damage report.
type PhotoStore interface {
	UploadURL(ctx context.Context, key, contentType string) (url string, expiresAt time.Time, err error)
	PublicURL(key string) string
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Extension returns the file extension stored for contentType.
func Extension(contentType string) (string, bool) {
	ext, ok := extensions[contentType]
	return ext, ok
}

// ContentType is the inverse of Extension.
func ContentType(key string) string {
	ext := path.Ext(key)
	for ct, e := range extensions {
		if e == ext {
			return ct
		}
	}
	return "application/octet-stream"
}

// ValidKey reports whether key is a clean relative slash separated path.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, `\`) {
		return false
	}
	if path.Clean(key) != key {
		return false
	}
	return key != ".." && !strings.HasPrefix(key, "../")
}
