package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Monitor: MonitorConfig{
			Name:             "demo",
			URL:              "https://example.com/health",
			Recipients:       []string{"ops@example.com"},
			CheckInterval:    3 * time.Second,
			FailureThreshold: 4,
			RequestTimeout:   10 * time.Second,
			LogRoot:          "./logs",
		},
		Storage: StorageConfig{
			Enabled:          true,
			Type:             "sqlite",
			ConnectionString: "./data/incidents.db",
		},
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("empty name", func(t *testing.T) {
		cfg := validConfig()
		cfg.Monitor.Name = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("unsafe name", func(t *testing.T) {
		for _, name := range []string{"../escape", "has space", "semi;colon", "/absolute"} {
			cfg := validConfig()
			cfg.Monitor.Name = name
			assert.Error(t, cfg.Validate(), "name %q should be rejected", name)
		}
	})

	t.Run("safe names accepted", func(t *testing.T) {
		for _, name := range []string{"demo", "my-site", "site_2", "a.b.example"} {
			cfg := validConfig()
			cfg.Monitor.Name = name
			assert.NoError(t, cfg.Validate(), "name %q should be accepted", name)
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		for _, url := range []string{"", "not-a-url", "ftp://example.com", "//missing-scheme"} {
			cfg := validConfig()
			cfg.Monitor.URL = url
			assert.Error(t, cfg.Validate(), "url %q should be rejected", url)
		}
	})

	t.Run("non-positive interval", func(t *testing.T) {
		cfg := validConfig()
		cfg.Monitor.CheckInterval = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("threshold below one", func(t *testing.T) {
		cfg := validConfig()
		cfg.Monitor.FailureThreshold = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive timeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Monitor.RequestTimeout = -time.Second
		assert.Error(t, cfg.Validate())
	})

	t.Run("storage connection string required when enabled", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.ConnectionString = ""
		assert.Error(t, cfg.Validate())

		cfg.Storage.Enabled = false
		assert.NoError(t, cfg.Validate())
	})
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Run("interval and timeout in seconds", func(t *testing.T) {
		t.Setenv("CHECK_INTERVAL", "30")
		t.Setenv("FAILURE_THRESHOLD", "7")
		t.Setenv("REQUEST_TIMEOUT", "5")

		cfg := validConfig()
		applyEnvOverrides(cfg)

		assert.Equal(t, 30*time.Second, cfg.Monitor.CheckInterval)
		assert.Equal(t, 7, cfg.Monitor.FailureThreshold)
		assert.Equal(t, 5*time.Second, cfg.Monitor.RequestTimeout)
	})

	t.Run("malformed values ignored", func(t *testing.T) {
		t.Setenv("CHECK_INTERVAL", "soon")
		t.Setenv("FAILURE_THRESHOLD", "many")

		cfg := validConfig()
		applyEnvOverrides(cfg)

		assert.Equal(t, 3*time.Second, cfg.Monitor.CheckInterval)
		assert.Equal(t, 4, cfg.Monitor.FailureThreshold)
	})

	t.Run("url and database overrides", func(t *testing.T) {
		t.Setenv("MONITOR_URL", "https://override.example.com")
		t.Setenv("DATABASE_URL", "postgres://watcher@db/incidents")

		cfg := validConfig()
		applyEnvOverrides(cfg)

		assert.Equal(t, "https://override.example.com", cfg.Monitor.URL)
		assert.Equal(t, "postgres://watcher@db/incidents", cfg.Storage.ConnectionString)
	})
}
