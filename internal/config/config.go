// Package config handles loading and validation of storefront configuration.
// Supports both development (env vars or CONFIG_FILE) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/caarlos0/env/v10"

	"storefront/internal/shop"
	"storefront/internal/transport"
)

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// Config holds all storefront configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string `json:"port" env:"PORT" envDefault:"8080"`
	Environment string `json:"environment" env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `json:"log_level" env:"LOG_LEVEL" envDefault:"info"`

	// GCP settings (required in production)
	GCPProject string `json:"gcp_project" env:"GCP_PROJECT"`
	SecretName string `json:"secret_name" env:"STOREFRONT_SECRET_NAME" envDefault:"storefront"`

	Backend BackendConfig `json:"backend"`
	Storage StorageConfig `json:"storage"`
	Session SessionConfig `json:"session"`
	Mirror  MirrorConfig  `json:"mirror"`
}

// BackendConfig points at the shop API.
type BackendConfig struct {
	URL      string        `json:"url" env:"STOREFRONT_BACKEND_URL"`
	Timeout  Duration      `json:"timeout" env:"STOREFRONT_BACKEND_TIMEOUT" envDefault:"30s"`
	Currency string        `json:"currency" env:"STOREFRONT_CURRENCY" envDefault:"BDT"`
	Breaker  BreakerConfig `json:"breaker"`
}

// BreakerConfig tunes the backend circuit breaker.
type BreakerConfig struct {
	FailureRatio float64  `json:"failure_ratio" env:"STOREFRONT_BREAKER_FAILURE_RATIO" envDefault:"0.6"`
	MinRequests  uint32   `json:"min_requests" env:"STOREFRONT_BREAKER_MIN_REQUESTS" envDefault:"10"`
	OpenTimeout  Duration `json:"open_timeout" env:"STOREFRONT_BREAKER_OPEN_TIMEOUT" envDefault:"30s"`
}

// StorageConfig selects the session local store.
type StorageConfig struct {
	Driver        string   `json:"driver" env:"STOREFRONT_STORAGE" envDefault:"memory"`
	FilePath      string   `json:"file_path" env:"STOREFRONT_STORAGE_FILE"`
	RedisAddr     string   `json:"redis_addr" env:"STOREFRONT_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB       int      `json:"redis_db" env:"STOREFRONT_REDIS_DB" envDefault:"0"`
	RedisPassword string   `json:"redis_password" env:"STOREFRONT_REDIS_PASSWORD"`
	RedisTTL      Duration `json:"redis_ttl" env:"STOREFRONT_REDIS_TTL" envDefault:"720h"`
}

// SessionConfig controls the BFF session cookie.
type SessionConfig struct {
	Secret  string   `json:"secret" env:"STOREFRONT_SESSION_SECRET"`
	IdleTTL Duration `json:"idle_ttl" env:"STOREFRONT_SESSION_TTL" envDefault:"30m"`
	Secure  bool     `json:"secure" env:"STOREFRONT_SESSION_SECURE"`
}

// MirrorConfig tunes the background cart/wishlist writes.
type MirrorConfig struct {
	Attempts        int      `json:"attempts" env:"STOREFRONT_MIRROR_ATTEMPTS" envDefault:"3"`
	InitialInterval Duration `json:"initial_interval" env:"STOREFRONT_MIRROR_INITIAL_INTERVAL" envDefault:"250ms"`
	MaxInterval     Duration `json:"max_interval" env:"STOREFRONT_MIRROR_MAX_INTERVAL" envDefault:"2s"`
}

// secretConfig is the JSON payload stored in Secret Manager.
type secretConfig struct {
	SessionSecret string `json:"session_secret"`
	RedisPassword string `json:"redis_password,omitempty"`
	BackendURL    string `json:"backend_url,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if err := cfg.loadFromSecretManager(ctx); err != nil {
			return nil, fmt.Errorf("loading secrets: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file. Environment defaults
// apply first, so the file only needs the fields it changes.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: map[string]string{}}); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromSecretManager fetches secrets from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{secret_name}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", c.GCPProject, c.SecretName)
	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}
	return c.applySecrets(result.Payload.Data)
}

// applySecrets overlays a secret payload. Empty fields keep the env value.
func (c *Config) applySecrets(data []byte) error {
	var s secretConfig
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}
	if s.SessionSecret != "" {
		c.Session.Secret = s.SessionSecret
	}
	if s.RedisPassword != "" {
		c.Storage.RedisPassword = s.RedisPassword
	}
	if s.BackendURL != "" {
		c.Backend.URL = s.BackendURL
	}
	return nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("backend url is required")
	}
	u, err := url.Parse(c.Backend.URL)
	if err != nil {
		return fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("backend url must be http or https: %q", c.Backend.URL)
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageFile:
		if c.Storage.FilePath == "" {
			return fmt.Errorf("storage file path is required for the file driver")
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("redis addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q (memory, file or redis)", c.Storage.Driver)
	}

	if c.Mirror.Attempts < 1 {
		return fmt.Errorf("mirror attempts must be at least 1")
	}
	if c.Backend.Breaker.FailureRatio <= 0 || c.Backend.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker failure ratio must be in (0, 1]")
	}
	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if len(c.Session.Secret) < 16 {
		return fmt.Errorf("session secret must be at least 16 characters")
	}
	return nil
}

// BreakerConfig converts the breaker settings for the transport.
func (c *Config) BreakerConfig() transport.BreakerConfig {
	b := transport.DefaultBreakerConfig("backend")
	b.FailureRatio = c.Backend.Breaker.FailureRatio
	b.MinRequests = c.Backend.Breaker.MinRequests
	if c.Backend.Breaker.OpenTimeout > 0 {
		b.Timeout = c.Backend.Breaker.OpenTimeout.Std()
	}
	return b
}

// MirrorConfig converts the mirror settings for the shop store.
func (c *Config) MirrorConfig() shop.MirrorConfig {
	m := shop.DefaultMirrorConfig()
	m.MaxAttempts = c.Mirror.Attempts
	if c.Mirror.InitialInterval > 0 {
		m.InitialInterval = c.Mirror.InitialInterval.Std()
	}
	if c.Mirror.MaxInterval > 0 {
		m.MaxInterval = c.Mirror.MaxInterval.Std()
	}
	return m
}

// Duration is a time.Duration that reads "30s" style strings from both
// environment variables and JSON.
type Duration time.Duration

// Std returns the standard library duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}
