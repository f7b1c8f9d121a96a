package storage

import "time"

// Config holds damage photo storage settings
type Config struct {
	Dir           string        // Directory photos are written under
	BaseURL       string        // Public URL of the HTTP listener
	SigningSecret string        // Key for upload grants
	URLExpiry     time.Duration // How long an upload URL stays valid
	MaxBytes      int64         // Largest accepted upload
}
