package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStore keeps photos on the local filesystem and serves them through
// the HTTP listener at BaseURL.
type LocalStore struct {
	cfg Config
	now func() time.Time
}

var _ PhotoStore = (*LocalStore)(nil)

func NewLocalStore(cfg Config) (*LocalStore, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("storage dir is required")
	}
	if cfg.SigningSecret == "" {
		return nil, fmt.Errorf("storage signing secret is required")
	}
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = 15 * time.Minute
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{cfg: cfg, now: time.Now}, nil
}

// UploadURL returns a URL accepting a single PUT of contentType bytes for key.
func (s *LocalStore) UploadURL(ctx context.Context, key, contentType string) (string, time.Time, error) {
	if !ValidKey(key) {
		return "", time.Time{}, ErrInvalidKey
	}
	if _, ok := Extension(contentType); !ok {
		return "", time.Time{}, ErrUnsupportedType
	}
	expiresAt := s.now().Add(s.cfg.URLExpiry)
	grant, err := s.signGrant(key, contentType, expiresAt)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign upload grant: %w", err)
	}
	return s.cfg.BaseURL + "/api/v1/uploads/" + grant, expiresAt, nil
}

func (s *LocalStore) PublicURL(key string) string {
	return s.cfg.BaseURL + "/api/v1/photos/" + key
}

// Save writes r under key. The file only becomes visible once fully written.
func (s *LocalStore) Save(key string, r io.Reader) (int64, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return 0, err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(tmp, io.LimitReader(r, s.cfg.MaxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n > s.cfg.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(tmp.Name())
		if errors.Is(err, ErrTooLarge) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to store file: %w", err)
	}
	return n, nil
}

func (s *LocalStore) Open(key string) (io.ReadCloser, error) {
	fullPath, err := s.path(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStore) path(key string) (string, error) {
	if !ValidKey(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.cfg.Dir, filepath.FromSlash(key)), nil
}
