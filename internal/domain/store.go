package domain

import (
	"context"
	"io"
)

// QuestionStore persists live questions.
type QuestionStore interface {
	ListByPlatform(ctx context.Context, platform string) ([]Question, error)
	CreateMany(ctx context.Context, questions []Question) error
	Update(ctx context.Context, question Question) error
	DeleteMany(ctx context.Context, ids []string) error
	// Upsert inserts or replaces a single question, stamping FirstSeen only
	// on insert, and returns the stored record.
	Upsert(ctx context.Context, question Question) (Question, error)
}

// PastcastQuestionStore persists resolved questions kept for backtesting.
type PastcastQuestionStore interface {
	ListByPlatform(ctx context.Context, platform string) ([]PastcastQuestion, error)
	ListAll(ctx context.Context) ([]PastcastQuestion, error)
	CreateMany(ctx context.Context, questions []PastcastQuestion) error
	// Update rewrites every field except IsDeleted, which belongs to
	// out-of-band tooling and survives re-syncs.
	Update(ctx context.Context, question PastcastQuestion) error
	DeleteMany(ctx context.Context, ids []string) error
}

// CommentStore persists pastcast discussion comments. There is deliberately
// no delete operation: no sync path ever removes a comment.
type CommentStore interface {
	ListByPlatform(ctx context.Context, platform string) ([]Comment, error)
	CreateMany(ctx context.Context, comments []Comment) error
	Update(ctx context.Context, comment Comment) error
}

// HistoryStore persists the append-only question history. Entries are never
// mutated or deleted by the sync engine.
type HistoryStore interface {
	CreateMany(ctx context.Context, entries []HistoryEntry) error
}

// Throttle paces calls to upstream APIs. Wait blocks until the next call is
// allowed or the context is cancelled.
type Throttle interface {
	Wait(ctx context.Context) error
}

// BlobWriter uploads a named object to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
