package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/forecastlab/metasync/internal/domain"
)

// CommentStore implements domain.CommentStore using PostgreSQL. Matching the
// domain contract, it exposes no delete operation.
type CommentStore struct {
	pool *pgxpool.Pool
}

// NewCommentStore creates a CommentStore backed by the given pool.
func NewCommentStore(pool *pgxpool.Pool) *CommentStore {
	return &CommentStore{pool: pool}
}

const commentCols = `id, question_id, platform, content, created_at,
	vote_total, parent_comment_id, author_name, prediction_value`

// ListByPlatform returns all comments stored for the given platform.
func (s *CommentStore) ListByPlatform(ctx context.Context, platform string) ([]domain.Comment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+commentCols+` FROM comments WHERE platform = $1 ORDER BY id`, platform)
	if err != nil {
		return nil, fmt.Errorf("postgres: list comments for %s: %w", platform, err)
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(
			&c.ID, &c.QuestionID, &c.Platform, &c.Content, &c.CreatedAt,
			&c.VoteTotal, &c.ParentCommentID, &c.AuthorName, &c.PredictionValue,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list comments rows: %w", err)
	}
	return comments, nil
}

const insertComment = `
	INSERT INTO comments (
		id, question_id, platform, content, created_at,
		vote_total, parent_comment_id, author_name, prediction_value
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// CreateMany bulk-inserts comments.
func (s *CommentStore) CreateMany(ctx context.Context, comments []domain.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, c := range comments {
		batch.Queue(insertComment,
			c.ID, c.QuestionID, c.Platform, c.Content, c.CreatedAt,
			c.VoteTotal, c.ParentCommentID, c.AuthorName, c.PredictionValue,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range comments {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: create comment batch item %d: %w", i, err)
		}
	}
	return nil
}

// Update replaces every field of the stored comment.
func (s *CommentStore) Update(ctx context.Context, c domain.Comment) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE comments SET
			question_id       = $2,
			platform          = $3,
			content           = $4,
			created_at        = $5,
			vote_total        = $6,
			parent_comment_id = $7,
			author_name       = $8,
			prediction_value  = $9
		WHERE id = $1`,
		c.ID, c.QuestionID, c.Platform, c.Content, c.CreatedAt,
		c.VoteTotal, c.ParentCommentID, c.AuthorName, c.PredictionValue,
	)
	if err != nil {
		return fmt.Errorf("postgres: update comment %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update comment %s: %w", c.ID, domain.ErrNotFound)
	}
	return nil
}
