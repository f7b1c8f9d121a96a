package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Gateway   GatewayConfig   `yaml:"gateway"`
	JWT       JWTConfig       `yaml:"jwt"`
	Log       LogConfig       `yaml:"log"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Holds     HoldConfig      `yaml:"holds"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
}

// ServerConfig contains gRPC server settings
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// HTTPConfig contains settings for the webhook/metrics listener
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	SSLMode      string `yaml:"ssl_mode"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// RedisConfig contains calendar cache settings. An empty address disables the cache.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	CalendarTTL time.Duration `yaml:"calendar_ttl"`
}

// KafkaConfig contains event publisher settings. No brokers disables publishing.
type KafkaConfig struct {
	Brokers     []string `yaml:"brokers"`
	TopicPrefix string   `yaml:"topic_prefix"`
	ClientID    string   `yaml:"client_id"`
}

// GatewayConfig contains payment gateway settings
type GatewayConfig struct {
	Type          string        `yaml:"type"` // "http" or "mock"
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	WebhookSecret string        `yaml:"webhook_secret"`
	Currency      string        `yaml:"currency"`
	Timeout       time.Duration `yaml:"timeout"`
}

// JWTConfig contains JWT token settings
type JWTConfig struct {
	Secret            string `yaml:"secret"`
	Issuer            string `yaml:"issuer"`
	AccessTokenExpiry int    `yaml:"access_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json", "text" or "tint"
}

// PricingConfig contains marketplace fee settings
type PricingConfig struct {
	ServiceFeeBps  int64 `yaml:"service_fee_bps"`
	PlatformFeeBps int64 `yaml:"platform_fee_bps"`
	ToleranceCents int64 `yaml:"tolerance_cents"`
}

// HoldConfig contains calendar hold settings
type HoldConfig struct {
	StaleAfter time.Duration `yaml:"stale_after"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	SweepStaleHolds     string `yaml:"sweep_stale_holds"`
	MarkLateReturns     string `yaml:"mark_late_returns"`
	ReconcilePayments   string `yaml:"reconcile_payments"`
	SendReturnReminders string `yaml:"send_return_reminders"`
}

// StorageConfig contains damage photo storage settings
type StorageConfig struct {
	Dir           string        `yaml:"dir"`
	BaseURL       string        `yaml:"base_url"` // Public URL of the HTTP listener
	SigningSecret string        `yaml:"signing_secret"`
	URLExpiry     time.Duration `yaml:"url_expiry"`
	MaxPhotoBytes int64         `yaml:"max_photo_bytes"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables if present
	cfg.overrideWithEnv()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Redis
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}

	// Kafka
	if val := os.Getenv("KAFKA_BROKERS"); val != "" {
		c.Kafka.Brokers = strings.Split(val, ",")
	}

	// Gateway
	if val := os.Getenv("GATEWAY_BASE_URL"); val != "" {
		c.Gateway.BaseURL = val
	}
	if val := os.Getenv("GATEWAY_API_KEY"); val != "" {
		c.Gateway.APIKey = val
	}
	if val := os.Getenv("GATEWAY_WEBHOOK_SECRET"); val != "" {
		c.Gateway.WebhookSecret = val
	}
	if val := os.Getenv("GATEWAY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Gateway.Timeout = d
		}
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("HTTP_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.HTTP.Port)
	}

	// Storage
	if val := os.Getenv("STORAGE_DIR"); val != "" {
		c.Storage.Dir = val
	}
	if val := os.Getenv("STORAGE_BASE_URL"); val != "" {
		c.Storage.BaseURL = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = c.Server.Port + 1
	}
	if c.HTTP.Port < 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port: %d", c.HTTP.Port)
	}

	// Database validation
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// JWT validation
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}
	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "auth-service"
	}

	// Gateway validation
	if c.Gateway.Type == "" {
		c.Gateway.Type = "mock"
	}
	if c.Gateway.Type == "http" && c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base_url is required for http gateway")
	}
	if c.Gateway.WebhookSecret == "" {
		return fmt.Errorf("gateway webhook secret is required")
	}
	if c.Gateway.Currency == "" {
		c.Gateway.Currency = "eur"
	}
	if c.Gateway.Timeout <= 0 {
		c.Gateway.Timeout = 10 * time.Second
	}

	// Redis defaults
	if c.Redis.CalendarTTL <= 0 {
		c.Redis.CalendarTTL = 5 * time.Minute
	}

	// Kafka defaults
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "trailerhub-backend"
	}

	// Pricing defaults
	if c.Pricing.ServiceFeeBps == 0 {
		c.Pricing.ServiceFeeBps = 500 // 5%
	}
	if c.Pricing.PlatformFeeBps == 0 {
		c.Pricing.PlatformFeeBps = 1500 // 15%
	}
	if c.Pricing.ToleranceCents == 0 {
		c.Pricing.ToleranceCents = 1
	}
	if c.Pricing.ServiceFeeBps < 0 || c.Pricing.PlatformFeeBps < 0 || c.Pricing.PlatformFeeBps > 10000 {
		return fmt.Errorf("invalid pricing rates: service=%d platform=%d", c.Pricing.ServiceFeeBps, c.Pricing.PlatformFeeBps)
	}

	// Hold defaults
	if c.Holds.StaleAfter <= 0 {
		c.Holds.StaleAfter = 30 * time.Minute
	}

	// Scheduler defaults
	if c.Scheduler.SweepStaleHolds == "" {
		c.Scheduler.SweepStaleHolds = "0 */10 * * * *" // every 10 minutes
	}
	if c.Scheduler.MarkLateReturns == "" {
		c.Scheduler.MarkLateReturns = "0 0 2 * * *" // 2 AM UTC
	}
	if c.Scheduler.ReconcilePayments == "" {
		c.Scheduler.ReconcilePayments = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.SendReturnReminders == "" {
		c.Scheduler.SendReturnReminders = "0 0 9 * * *" // 9 AM UTC
	}

	// Storage defaults
	if c.Storage.Dir == "" {
		c.Storage.Dir = "./uploads"
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = fmt.Sprintf("http://localhost:%d", c.HTTP.Port)
	}
	if c.Storage.SigningSecret == "" {
		c.Storage.SigningSecret = c.JWT.Secret
	}
	if c.Storage.URLExpiry <= 0 {
		c.Storage.URLExpiry = 15 * time.Minute
	}
	if c.Storage.MaxPhotoBytes <= 0 {
		c.Storage.MaxPhotoBytes = 10 << 20 // 10MB
	}

	return nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the gRPC server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetHTTPAddress returns the webhook/metrics listener address
func (c *Config) GetHTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.HTTP.Port)
}

// Topic returns the fully qualified Kafka topic name
func (c *Config) Topic(name string) string {
	return c.Kafka.TopicPrefix + name
}
