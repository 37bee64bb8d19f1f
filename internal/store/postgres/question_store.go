package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecastlab/metasync/internal/domain"
)

// QuestionStore implements domain.QuestionStore using PostgreSQL.
type QuestionStore struct {
	pool *pgxpool.Pool
}

// NewQuestionStore creates a QuestionStore backed by the given pool.
func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionCols = `id, platform, title, description, url,
	options, qualityindicators, extra, fetched, first_seen`

// encodeQuestionJSON marshals the three JSONB columns of a question.
func encodeQuestionJSON(q domain.Question) (options, indicators, extra []byte, err error) {
	if options, err = json.Marshal(q.Options); err != nil {
		return nil, nil, nil, fmt.Errorf("encode options: %w", err)
	}
	if indicators, err = json.Marshal(q.QualityIndicators); err != nil {
		return nil, nil, nil, fmt.Errorf("encode qualityindicators: %w", err)
	}
	if q.Extra == nil {
		q.Extra = map[string]any{}
	}
	if extra, err = json.Marshal(q.Extra); err != nil {
		return nil, nil, nil, fmt.Errorf("encode extra: %w", err)
	}
	return options, indicators, extra, nil
}

// scanQuestion scans a single question row.
func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	var options, indicators, extra []byte
	err := row.Scan(
		&q.ID, &q.Platform, &q.Title, &q.Description, &q.URL,
		&options, &indicators, &extra, &q.Fetched, &q.FirstSeen,
	)
	if err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("decode options: %w", err)
	}
	if err := json.Unmarshal(indicators, &q.QualityIndicators); err != nil {
		return domain.Question{}, fmt.Errorf("decode qualityindicators: %w", err)
	}
	if err := json.Unmarshal(extra, &q.Extra); err != nil {
		return domain.Question{}, fmt.Errorf("decode extra: %w", err)
	}
	return q, nil
}

// ListByPlatform returns all questions tracked for the given platform.
func (s *QuestionStore) ListByPlatform(ctx context.Context, platform string) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionCols+` FROM questions WHERE platform = $1 ORDER BY id`, platform)
	if err != nil {
		return nil, fmt.Errorf("postgres: list questions for %s: %w", platform, err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list questions rows: %w", err)
	}
	return questions, nil
}

const insertQuestion = `
	INSERT INTO questions (
		id, platform, title, description, url,
		options, qualityindicators, extra, fetched, first_seen
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

// CreateMany bulk-inserts questions. FirstSeen must already be stamped by the
// caller; this store never invents timestamps.
func (s *QuestionStore) CreateMany(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, q := range questions {
		options, indicators, extra, err := encodeQuestionJSON(q)
		if err != nil {
			return fmt.Errorf("postgres: question %s: %w", q.ID, err)
		}
		batch.Queue(insertQuestion,
			q.ID, q.Platform, q.Title, q.Description, q.URL,
			options, indicators, extra, q.Fetched, q.FirstSeen,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range questions {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: create question batch item %d: %w", i, err)
		}
	}
	return nil
}

// Update replaces every field of the stored question except first_seen, which
// is immutable after creation.
func (s *QuestionStore) Update(ctx context.Context, q domain.Question) error {
	options, indicators, extra, err := encodeQuestionJSON(q)
	if err != nil {
		return fmt.Errorf("postgres: question %s: %w", q.ID, err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE questions SET
			platform          = $2,
			title             = $3,
			description       = $4,
			url               = $5,
			options           = $6,
			qualityindicators = $7,
			extra             = $8,
			fetched           = $9
		WHERE id = $1`,
		q.ID, q.Platform, q.Title, q.Description, q.URL,
		options, indicators, extra, q.Fetched,
	)
	if err != nil {
		return fmt.Errorf("postgres: update question %s: %w", q.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update question %s: %w", q.ID, domain.ErrNotFound)
	}
	return nil
}

// DeleteMany removes the questions with the given ids.
func (s *QuestionStore) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("postgres: delete questions: %w", err)
	}
	return nil
}

// Upsert inserts or replaces a single question. first_seen is stamped from
// the record's Fetched time on insert and left untouched on update.
func (s *QuestionStore) Upsert(ctx context.Context, q domain.Question) (domain.Question, error) {
	options, indicators, extra, err := encodeQuestionJSON(q)
	if err != nil {
		return domain.Question{}, fmt.Errorf("postgres: question %s: %w", q.ID, err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO questions (
			id, platform, title, description, url,
			options, qualityindicators, extra, fetched, first_seen
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (id) DO UPDATE SET
			platform          = EXCLUDED.platform,
			title             = EXCLUDED.title,
			description       = EXCLUDED.description,
			url               = EXCLUDED.url,
			options           = EXCLUDED.options,
			qualityindicators = EXCLUDED.qualityindicators,
			extra             = EXCLUDED.extra,
			fetched           = EXCLUDED.fetched
		RETURNING `+questionCols,
		q.ID, q.Platform, q.Title, q.Description, q.URL,
		options, indicators, extra, q.Fetched,
	)
	stored, err := scanQuestion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, domain.ErrNotFound
		}
		return domain.Question{}, fmt.Errorf("postgres: upsert question %s: %w", q.ID, err)
	}
	return stored, nil
}
