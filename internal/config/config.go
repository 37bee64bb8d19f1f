// Package config defines the top-level configuration for the aggregator and
// provides validation helpers.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by METASYNC_* environment
// variables.
type Config struct {
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Sync     SyncConfig     `toml:"sync"`
	Export   ExportConfig   `toml:"export"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// PostgresConfig holds database connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds the optional distributed-throttle backend. When disabled,
// upstream calls are paced by a local fixed delay instead.
type RedisConfig struct {
	Enabled           bool   `toml:"enabled"`
	Addr              string `toml:"addr"`
	Password          string `toml:"password"`
	DB                int    `toml:"db"`
	PoolSize          int    `toml:"pool_size"`
	MaxRetries        int    `toml:"max_retries"`
	TLSEnabled        bool   `toml:"tls_enabled"`
	RequestsPerMinute int    `toml:"requests_per_minute"`
}

// S3Config holds the optional export snapshot destination.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// SyncConfig controls sync scheduling and upstream endpoints.
type SyncConfig struct {
	Cron              string   `toml:"cron"`
	FetchDelay        duration `toml:"fetch_delay"`
	MetaculusBaseURL  string   `toml:"metaculus_base_url"`
	PolymarketBaseURL string   `toml:"polymarket_base_url"`
}

// ExportConfig controls the pastcast JSON export job.
type ExportConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"`
	Dir     string `toml:"dir"`
	Upload  bool   `toml:"upload"`
}

// duration wraps time.Duration so TOML values like "1s" parse directly.
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Mode:     "once",
		LogLevel: "info",
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "metasync",
			User:          "metasync",
			SSLMode:       "disable",
			PoolMaxConns:  8,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:              "localhost:6379",
			RequestsPerMinute: 60,
		},
		Sync: SyncConfig{
			Cron:              "0 3 * * *",
			FetchDelay:        duration{time.Second},
			MetaculusBaseURL:  "https://www.metaculus.com",
			PolymarketBaseURL: "https://gamma-api.polymarket.com",
		},
		Export: ExportConfig{
			Cron: "0 5 * * *",
			Dir:  ".",
		},
	}
}

// validModes are the accepted operating modes.
var validModes = map[string]bool{
	"sync":    true, // scheduled loop
	"once":    true, // single pass over all platforms
	"refresh": true, // single platform, optionally partial
	"export":  true, // one export snapshot
}

// Validate verifies that the configuration is internally consistent.
func (c *Config) Validate() error {
	if !validModes[c.Mode] {
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if c.Postgres.DSN == "" {
		if c.Postgres.Host == "" || c.Postgres.Database == "" || c.Postgres.User == "" {
			return fmt.Errorf("config: postgres requires either dsn or host/database/user")
		}
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis enabled but addr is empty")
		}
		if c.Redis.RequestsPerMinute <= 0 {
			return fmt.Errorf("config: redis requests_per_minute must be positive")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return fmt.Errorf("config: s3 enabled but bucket or region is empty")
		}
	}

	if c.Export.Enabled && c.Export.Dir == "" && !c.Export.Upload {
		return fmt.Errorf("config: export enabled but no destination configured")
	}

	if c.Sync.FetchDelay.Duration < 0 {
		return fmt.Errorf("config: sync fetch_delay must not be negative")
	}

	return nil
}
