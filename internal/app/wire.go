package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/forecastlab/metasync/internal/blob/s3"
	"github.com/forecastlab/metasync/internal/cache/redis"
	"github.com/forecastlab/metasync/internal/config"
	"github.com/forecastlab/metasync/internal/domain"
	"github.com/forecastlab/metasync/internal/export"
	"github.com/forecastlab/metasync/internal/pipeline"
	"github.com/forecastlab/metasync/internal/platforms"
	"github.com/forecastlab/metasync/internal/platforms/metaculus"
	"github.com/forecastlab/metasync/internal/platforms/polymarket"
	"github.com/forecastlab/metasync/internal/platforms/xrisk"
	"github.com/forecastlab/metasync/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Stores   platforms.Stores
	Throttle domain.Throttle
	Registry *platforms.Registry
	Syncer   *platforms.Syncer
	Exporter *export.Exporter
	Pipeline *pipeline.Orchestrator
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.Stores = platforms.Stores{
		Questions: postgres.NewQuestionStore(pool),
		Pastcasts: postgres.NewPastcastQuestionStore(pool),
		Comments:  postgres.NewCommentStore(pool),
		History:   postgres.NewHistoryStore(pool),
	}

	// --- Upstream throttle ---
	// Redis gives a window shared across processes; otherwise a local fixed
	// delay paces this process alone.
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.Throttle = redis.NewThrottle(redisClient, "upstream", cfg.Redis.RequestsPerMinute, time.Minute)
	} else {
		deps.Throttle = platforms.NewFixedDelayThrottle(cfg.Sync.FetchDelay.Duration)
	}

	// --- Platforms ---
	registry, err := platforms.NewRegistry(
		metaculus.New(cfg.Sync.MetaculusBaseURL, deps.Throttle, logger),
		polymarket.New(cfg.Sync.PolymarketBaseURL, deps.Throttle, logger),
		xrisk.New(),
	)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: registry: %w", err)
	}
	deps.Registry = registry
	deps.Syncer = platforms.NewSyncer(deps.Stores, logger)

	// --- Export ---
	var blob domain.BlobWriter
	if cfg.S3.Enabled && cfg.Export.Upload {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		blob = s3blob.NewWriter(s3Client)
	}
	deps.Exporter = export.NewExporter(deps.Stores.Pastcasts, blob, cfg.Export.Dir, logger)

	// --- Pipeline ---
	scheduledExporter := deps.Exporter
	if !cfg.Export.Enabled {
		scheduledExporter = nil
	}
	deps.Pipeline = pipeline.NewOrchestrator(
		deps.Syncer,
		deps.Registry,
		scheduledExporter,
		cfg.Sync.Cron,
		cfg.Export.Cron,
		logger,
	)

	return deps, cleanup, nil
}
