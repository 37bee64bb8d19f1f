package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "once", cfg.Mode)
	assert.Equal(t, time.Second, cfg.Sync.FetchDelay.Duration)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "turbo" }},
		{"postgres incomplete", func(c *Config) {
			c.Postgres.DSN = ""
			c.Postgres.Host = ""
		}},
		{"redis enabled without addr", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.Addr = ""
		}},
		{"redis zero rate", func(c *Config) {
			c.Redis.Enabled = true
			c.Redis.RequestsPerMinute = 0
		}},
		{"s3 enabled without bucket", func(c *Config) {
			c.S3.Enabled = true
			c.S3.Region = "us-east-1"
		}},
		{"export without destination", func(c *Config) {
			c.Export.Enabled = true
			c.Export.Dir = ""
			c.Export.Upload = false
		}},
		{"negative fetch delay", func(c *Config) {
			c.Sync.FetchDelay.Duration = -time.Second
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode = "sync"
log_level = "debug"

[postgres]
host = "db.internal"

[sync]
cron = "30 2 * * *"
fetch_delay = "250ms"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sync", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, "30 2 * * *", cfg.Sync.Cron)
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.FetchDelay.Duration)
	// Untouched fields keep their defaults.
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, "https://www.metaculus.com", cfg.Sync.MetaculusBaseURL)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("METASYNC_POSTGRES_PASSWORD", "hunter2")
	t.Setenv("METASYNC_REDIS_ENABLED", "true")
	t.Setenv("METASYNC_REDIS_REQUESTS_PER_MINUTE", "120")
	t.Setenv("METASYNC_SYNC_FETCH_DELAY", "2s")
	t.Setenv("METASYNC_MODE", "export")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hunter2", cfg.Postgres.Password)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 120, cfg.Redis.RequestsPerMinute)
	assert.Equal(t, 2*time.Second, cfg.Sync.FetchDelay.Duration)
	assert.Equal(t, "export", cfg.Mode)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
