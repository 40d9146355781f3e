package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STOREFRONT_BACKEND_URL", "https://api.example.com")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, "BDT", cfg.Backend.Currency)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL.Std())
	assert.Equal(t, 3, cfg.Mirror.Attempts)
}

func TestLoad_FromEnv(t *testing.T) {
	setEnvs(t, map[string]string{
		"CONFIG_FILE":                    "",
		"PORT":                           "9090",
		"LOG_LEVEL":                      "debug",
		"STOREFRONT_BACKEND_URL":         "http://localhost:8000",
		"STOREFRONT_BACKEND_TIMEOUT":     "5s",
		"STOREFRONT_STORAGE":             "redis",
		"STOREFRONT_REDIS_ADDR":          "redis:6379",
		"STOREFRONT_REDIS_DB":            "2",
		"STOREFRONT_SESSION_SECRET":      "0123456789abcdef",
		"STOREFRONT_MIRROR_ATTEMPTS":     "5",
		"STOREFRONT_MIRROR_MAX_INTERVAL": "4s",
	})

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, StorageRedis, cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.NoError(t, cfg.ValidateServer())

	m := cfg.MirrorConfig()
	assert.Equal(t, 5, m.MaxAttempts)
	assert.Equal(t, 4*time.Second, m.MaxInterval)
	assert.Equal(t, 250*time.Millisecond, m.InitialInterval)
}

func TestLoad_MissingBackendURL(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STOREFRONT_BACKEND_URL", "")

	cfg, err := Load(context.Background())
	assert.Nil(t, cfg)
	assert.ErrorContains(t, err, "backend url is required")
}

func TestLoad_ProductionRequiresProject(t *testing.T) {
	setEnvs(t, map[string]string{
		"CONFIG_FILE":            "",
		"ENVIRONMENT":            "production",
		"GCP_PROJECT":            "",
		"STOREFRONT_BACKEND_URL": "https://api.example.com",
	})

	_, err := Load(context.Background())
	assert.ErrorContains(t, err, "GCP_PROJECT required")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": "3000",
		"backend": {"url": "https://api.example.com", "timeout": "10s", "currency": "USD"},
		"storage": {"driver": "file", "file_path": "/tmp/shop.json"},
		"session": {"secret": "file-secret-0123456789"}
	}`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout.Std())
	assert.Equal(t, "USD", cfg.Backend.Currency)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Mirror.Attempts)
	assert.Equal(t, 0.6, cfg.Backend.Breaker.FailureRatio)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadFromFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "reading config file")

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
	_, err = loadFromFile(bad)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend: BackendConfig{URL: "https://api.example.com", Breaker: BreakerConfig{FailureRatio: 0.5}},
			Storage: StorageConfig{Driver: StorageMemory},
			Mirror:  MirrorConfig{Attempts: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"non-http backend", func(c *Config) { c.Backend.URL = "ftp://x" }, "must be http or https"},
		{"file without path", func(c *Config) { c.Storage.Driver = StorageFile }, "file path is required"},
		{"redis without addr", func(c *Config) { c.Storage.Driver = StorageRedis }, "redis addr is required"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }, "unknown storage driver"},
		{"zero attempts", func(c *Config) { c.Mirror.Attempts = 0 }, "mirror attempts"},
		{"bad ratio", func(c *Config) { c.Backend.Breaker.FailureRatio = 1.5 }, "failure ratio"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateServer_ShortSecret(t *testing.T) {
	c := &Config{Session: SessionConfig{Secret: "short"}}
	assert.Error(t, c.ValidateServer())
}

func TestApplySecrets(t *testing.T) {
	c := &Config{Backend: BackendConfig{URL: "https://env.example.com"}}
	require.NoError(t, c.applySecrets([]byte(`{"session_secret":"s3cret-s3cret-s3cret","redis_password":"pw"}`)))

	assert.Equal(t, "s3cret-s3cret-s3cret", c.Session.Secret)
	assert.Equal(t, "pw", c.Storage.RedisPassword)
	assert.Equal(t, "https://env.example.com", c.Backend.URL)

	assert.ErrorContains(t, c.applySecrets([]byte(`nope`)), "parsing secret JSON")
}

func TestBreakerConfig(t *testing.T) {
	c := &Config{Backend: BackendConfig{Breaker: BreakerConfig{FailureRatio: 0.4, MinRequests: 7, OpenTimeout: Duration(time.Minute)}}}
	b := c.BreakerConfig()
	assert.Equal(t, "backend", b.Name)
	assert.Equal(t, 0.4, b.FailureRatio)
	assert.Equal(t, uint32(7), b.MinRequests)
	assert.Equal(t, time.Minute, b.Timeout)
}
