package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecastlab/metasync/internal/domain"
)

// PastcastQuestionStore implements domain.PastcastQuestionStore using
// PostgreSQL.
type PastcastQuestionStore struct {
	pool *pgxpool.Pool
}

// NewPastcastQuestionStore creates a PastcastQuestionStore backed by the
// given pool.
func NewPastcastQuestionStore(pool *pgxpool.Pool) *PastcastQuestionStore {
	return &PastcastQuestionStore{pool: pool}
}

const pastcastCols = `id, platform, title, description, url,
	binary_resolution, vantage_date, vantage_aggregate_binary_forecast,
	fetched, is_deleted`

func scanPastcast(row pgx.Row) (domain.PastcastQuestion, error) {
	var q domain.PastcastQuestion
	err := row.Scan(
		&q.ID, &q.Platform, &q.Title, &q.Description, &q.URL,
		&q.BinaryResolution, &q.VantageDate, &q.VantageAggregateBinaryForecast,
		&q.Fetched, &q.IsDeleted,
	)
	return q, err
}

func (s *PastcastQuestionStore) list(ctx context.Context, query string, args ...any) ([]domain.PastcastQuestion, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []domain.PastcastQuestion
	for rows.Next() {
		q, err := scanPastcast(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ListByPlatform returns all pastcast questions for the given platform,
// including soft-deleted ones so the reconciliation partition sees them.
func (s *PastcastQuestionStore) ListByPlatform(ctx context.Context, platform string) ([]domain.PastcastQuestion, error) {
	questions, err := s.list(ctx,
		`SELECT `+pastcastCols+` FROM pastcast_questions WHERE platform = $1 ORDER BY id`, platform)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pastcast questions for %s: %w", platform, err)
	}
	return questions, nil
}

// ListAll returns every pastcast question across all platforms.
func (s *PastcastQuestionStore) ListAll(ctx context.Context) ([]domain.PastcastQuestion, error) {
	questions, err := s.list(ctx,
		`SELECT `+pastcastCols+` FROM pastcast_questions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pastcast questions: %w", err)
	}
	return questions, nil
}

const insertPastcast = `
	INSERT INTO pastcast_questions (
		id, platform, title, description, url,
		binary_resolution, vantage_date, vantage_aggregate_binary_forecast,
		fetched, is_deleted
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// CreateMany bulk-inserts pastcast questions.
func (s *PastcastQuestionStore) CreateMany(ctx context.Context, questions []domain.PastcastQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, q := range questions {
		batch.Queue(insertPastcast,
			q.ID, q.Platform, q.Title, q.Description, q.URL,
			q.BinaryResolution, q.VantageDate, q.VantageAggregateBinaryForecast,
			q.Fetched, q.IsDeleted,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range questions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: create pastcast batch item %d: %w", i, err)
		}
	}
	return nil
}

// Update replaces every field of the stored record except is_deleted, which
// only out-of-band tooling writes. A re-sync must never resurrect a
// soft-deleted record.
func (s *PastcastQuestionStore) Update(ctx context.Context, q domain.PastcastQuestion) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE pastcast_questions SET
			platform                          = $2,
			title                             = $3,
			description                       = $4,
			url                               = $5,
			binary_resolution                 = $6,
			vantage_date                      = $7,
			vantage_aggregate_binary_forecast = $8,
			fetched                           = $9
		WHERE id = $1`,
		q.ID, q.Platform, q.Title, q.Description, q.URL,
		q.BinaryResolution, q.VantageDate, q.VantageAggregateBinaryForecast,
		q.Fetched,
	)
	if err != nil {
		return fmt.Errorf("postgres: update pastcast question %s: %w", q.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update pastcast question %s: %w", q.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteMany removes the pastcast questions with the given ids.
func (s *PastcastQuestionStore) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM pastcast_questions WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("postgres: delete pastcast questions: %w", err)
	}
	return nil
}
