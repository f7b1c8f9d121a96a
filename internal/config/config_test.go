package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
server:
  host: 127.0.0.1
  port: 50051
database:
  host: localhost
  port: 5432
  user: trailerhub
  database: trailerhub
jwt:
  secret: "0123456789abcdef0123456789abcdef"
gateway:
  webhook_secret: whsec
  timeout: 3s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Applies defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, minimalYAML))
		require.NoError(t, err)

		assert.Equal(t, 50052, cfg.HTTP.Port)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, "mock", cfg.Gateway.Type)
		assert.Equal(t, "eur", cfg.Gateway.Currency)
		assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
		assert.Equal(t, int64(500), cfg.Pricing.ServiceFeeBps)
		assert.Equal(t, int64(1500), cfg.Pricing.PlatformFeeBps)
		assert.Equal(t, int64(1), cfg.Pricing.ToleranceCents)
		assert.Equal(t, 30*time.Minute, cfg.Holds.StaleAfter)
		assert.Equal(t, "0 */10 * * * *", cfg.Scheduler.SweepStaleHolds)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "http://localhost:50052", cfg.Storage.BaseURL)
		assert.Equal(t, cfg.JWT.Secret, cfg.Storage.SigningSecret)
		assert.Equal(t, int64(10<<20), cfg.Storage.MaxPhotoBytes)
		assert.Equal(t, "127.0.0.1:50051", cfg.GetServerAddress())
		assert.Equal(t, "postgres://trailerhub:@localhost:5432/trailerhub?sslmode=disable", cfg.GetDatabaseConnectionString())
	})

	t.Run("Environment overrides file", func(t *testing.T) {
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
		t.Setenv("GATEWAY_TIMEOUT", "750ms")

		cfg, err := Load(writeConfig(t, minimalYAML))
		require.NoError(t, err)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 750*time.Millisecond, cfg.Gateway.Timeout)
	})

	t.Run("Rejects short JWT secret", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
server: {port: 1}
database: {host: h, user: u, database: d}
jwt: {secret: short}
gateway: {webhook_secret: x}
`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "JWT secret must be at least 32 characters")
	})

	t.Run("HTTP gateway requires base url", func(t *testing.T) {
		_, err := Load(writeConfig(t, minimalYAML+"  type: http\n"))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "base_url")
	})
}

func TestGetSecurityLevel(t *testing.T) {
	assert.Equal(t, SecurityPublic, GetSecurityLevel("/trailerhub.v1.ReservationService/GetQuote"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("/trailerhub.v1.ReservationService/CreateReservation"))
	assert.Equal(t, SecurityAdmin, GetSecurityLevel("/trailerhub.v1.ReservationService/SyncPayment"))
	assert.Equal(t, SecurityAccess, GetSecurityLevel("/unknown.Service/Method"))
}
