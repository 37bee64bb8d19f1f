package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies METASYNC_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known METASYNC_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "METASYNC_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "METASYNC_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "METASYNC_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "METASYNC_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "METASYNC_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "METASYNC_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "METASYNC_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "METASYNC_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "METASYNC_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "METASYNC_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "METASYNC_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "METASYNC_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "METASYNC_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "METASYNC_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "METASYNC_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "METASYNC_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "METASYNC_REDIS_TLS_ENABLED")
	setInt(&cfg.Redis.RequestsPerMinute, "METASYNC_REDIS_REQUESTS_PER_MINUTE")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "METASYNC_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "METASYNC_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "METASYNC_S3_REGION")
	setStr(&cfg.S3.Bucket, "METASYNC_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "METASYNC_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "METASYNC_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "METASYNC_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "METASYNC_S3_FORCE_PATH_STYLE")

	// ── Sync ──
	setStr(&cfg.Sync.Cron, "METASYNC_SYNC_CRON")
	setDuration(&cfg.Sync.FetchDelay, "METASYNC_SYNC_FETCH_DELAY")
	setStr(&cfg.Sync.MetaculusBaseURL, "METASYNC_SYNC_METACULUS_BASE_URL")
	setStr(&cfg.Sync.PolymarketBaseURL, "METASYNC_SYNC_POLYMARKET_BASE_URL")

	// ── Export ──
	setBool(&cfg.Export.Enabled, "METASYNC_EXPORT_ENABLED")
	setStr(&cfg.Export.Cron, "METASYNC_EXPORT_CRON")
	setStr(&cfg.Export.Dir, "METASYNC_EXPORT_DIR")
	setBool(&cfg.Export.Upload, "METASYNC_EXPORT_UPLOAD")

	// ── Top-level ──
	setStr(&cfg.Mode, "METASYNC_MODE")
	setStr(&cfg.LogLevel, "METASYNC_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
