package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecastlab/metasync/internal/domain"
)

// HistoryStore implements domain.HistoryStore using PostgreSQL. History rows
// are append-only; the sequence within an idref is the BIGSERIAL insertion
// order.
type HistoryStore struct {
	pool *pgxpool.Pool
}

// NewHistoryStore creates a HistoryStore backed by the given pool.
func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

const insertHistory = `
	INSERT INTO history (
		idref, platform, title, description, url,
		options, qualityindicators, extra, fetched, first_seen
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// CreateMany appends history entries.
func (s *HistoryStore) CreateMany(ctx context.Context, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		options, indicators, extra, err := encodeQuestionJSON(e.Question)
		if err != nil {
			return fmt.Errorf("postgres: history entry %s: %w", e.IDRef, err)
		}
		batch.Queue(insertHistory,
			e.IDRef, e.Platform, e.Title, e.Description, e.URL,
			options, indicators, extra, e.Fetched, e.FirstSeen,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: append history batch item %d: %w", i, err)
		}
	}
	return nil
}
