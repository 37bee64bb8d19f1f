package platforms

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/forecastlab/metasync/internal/domain"
)

// Stores bundles the four collections the sync engine writes. The engine is
// the sole writer of all of them.
type Stores struct {
	Questions domain.QuestionStore
	Pastcasts domain.PastcastQuestionStore
	Comments  domain.CommentStore
	History   domain.HistoryStore
}

// Syncer reconciles a freshly fetched platform snapshot against the stored
// records for that platform: creates what is new, rewrites what is known,
// deletes what is gone (unless the fetch was partial), and appends history.
type Syncer struct {
	stores Stores
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithClock overrides the engine's wall clock. Tests use it to pin Fetched
// and FirstSeen timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) { s.now = now }
}

// NewSyncer creates a Syncer over the given stores.
func NewSyncer(stores Stores, logger *slog.Logger, opts ...Option) *Syncer {
	s := &Syncer{
		stores: stores,
		logger: logger.With(slog.String("component", "syncer")),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessPlatform fetches the platform's current snapshot and reconciles it
// against the stores. A platform without a fetcher and an upstream fetch that
// fails or returns nothing are both logged no-ops: a failed fetch must never
// read as "platform now has zero questions". Persistence errors abort the
// rest of this platform's sync and propagate.
func (s *Syncer) ProcessPlatform(ctx context.Context, p *Platform, args map[string]string) error {
	logger := s.logger.With(
		slog.String("platform", p.Name()),
		slog.String("run_id", uuid.NewString()),
	)

	if !p.hasFetcher() {
		logger.Info("platform has no fetcher, skipping")
		return nil
	}
	if err := p.checkArgs(args); err != nil {
		return err
	}

	switch p.Version() {
	case VersionV1:
		questions, err := p.v1(ctx)
		if err != nil {
			logger.Warn("fetch failed", slog.String("error", err.Error()))
			return nil
		}
		// v1 fetches are always full batches.
		return s.syncQuestions(ctx, logger, p, questions, false)

	case VersionV2:
		result, err := p.v2(ctx, args)
		if err != nil {
			logger.Warn("fetch failed", slog.String("error", err.Error()))
			return nil
		}
		if result == nil {
			logger.Warn("platform returned no results")
			return nil
		}
		return s.syncQuestions(ctx, logger, p, result.Questions, result.Partial)

	case VersionPastcast:
		result, err := p.pastcast(ctx, args)
		if err != nil {
			logger.Warn("fetch failed", slog.String("error", err.Error()))
			return nil
		}
		if result == nil {
			logger.Warn("platform returned no results")
			return nil
		}
		return s.syncPastcast(ctx, logger, p, result)
	}

	return fmt.Errorf("platforms: platform %q has unknown version %q", p.Name(), p.Version())
}

// syncQuestions reconciles live questions and appends a history entry for
// every created or updated record.
func (s *Syncer) syncQuestions(ctx context.Context, logger *slog.Logger, p *Platform, fetched []FetchedQuestion, partial bool) error {
	if len(fetched) == 0 {
		logger.Warn("platform returned no results")
		return nil
	}

	stored, err := s.stores.Questions.ListByPlatform(ctx, p.Name())
	if err != nil {
		return fmt.Errorf("platforms: list questions for %s: %w", p.Name(), err)
	}

	now := s.now().UTC()

	fetchedIDs := make(map[string]struct{}, len(fetched))
	var created, updated []domain.Question
	for _, f := range fetched {
		fetchedIDs[f.ID] = struct{}{}
	}
	firstSeen := make(map[string]time.Time, len(stored))
	var deletedIDs []string
	for _, q := range stored {
		firstSeen[q.ID] = q.FirstSeen
		if _, ok := fetchedIDs[q.ID]; !ok {
			deletedIDs = append(deletedIDs, q.ID)
		}
	}

	for _, f := range fetched {
		q := p.prepareQuestion(f, now)
		if seen, ok := firstSeen[q.ID]; ok {
			// Carry the stored timestamp so history snapshots are complete;
			// the store ignores it on update anyway.
			q.FirstSeen = seen
			updated = append(updated, q)
		} else {
			q.FirstSeen = now
			created = append(created, q)
		}
	}

	if err := s.stores.Questions.CreateMany(ctx, created); err != nil {
		return fmt.Errorf("platforms: create questions for %s: %w", p.Name(), err)
	}

	// Matched records are rewritten without diffing; rewriting identical data
	// is harmless and keeps the engine single-pass.
	for _, q := range updated {
		if err := s.stores.Questions.Update(ctx, q); err != nil {
			return fmt.Errorf("platforms: update question %s: %w", q.ID, err)
		}
	}

	deleted := 0
	if !partial {
		if err := s.stores.Questions.DeleteMany(ctx, deletedIDs); err != nil {
			return fmt.Errorf("platforms: delete questions for %s: %w", p.Name(), err)
		}
		deleted = len(deletedIDs)
	}

	entries := make([]domain.HistoryEntry, 0, len(created)+len(updated))
	for _, q := range created {
		entries = append(entries, domain.HistoryEntry{IDRef: q.ID, Question: q})
	}
	for _, q := range updated {
		entries = append(entries, domain.HistoryEntry{IDRef: q.ID, Question: q})
	}
	if err := s.stores.History.CreateMany(ctx, entries); err != nil {
		return fmt.Errorf("platforms: append history for %s: %w", p.Name(), err)
	}

	logger.Info("sync complete",
		slog.Int("created", len(created)),
		slog.Int("updated", len(updated)),
		slog.Int("deleted", deleted),
	)
	return nil
}

// syncPastcast reconciles pastcast questions and, independently, their
// comments. Comments are append-and-update only; no sync path deletes them.
func (s *Syncer) syncPastcast(ctx context.Context, logger *slog.Logger, p *Platform, result *PastcastFetchResult) error {
	if len(result.Questions) == 0 {
		logger.Warn("platform returned no results")
		return nil
	}

	stored, err := s.stores.Pastcasts.ListByPlatform(ctx, p.Name())
	if err != nil {
		return fmt.Errorf("platforms: list pastcast questions for %s: %w", p.Name(), err)
	}

	now := s.now().UTC()

	fetchedIDs := make(map[string]struct{}, len(result.Questions))
	for _, f := range result.Questions {
		fetchedIDs[f.ID] = struct{}{}
	}
	storedIDs := make(map[string]struct{}, len(stored))
	var deletedIDs []string
	for _, q := range stored {
		storedIDs[q.ID] = struct{}{}
		if _, ok := fetchedIDs[q.ID]; !ok {
			deletedIDs = append(deletedIDs, q.ID)
		}
	}

	var created, updated []domain.PastcastQuestion
	for _, f := range result.Questions {
		q := p.preparePastcastQuestion(f, now)
		if _, ok := storedIDs[q.ID]; ok {
			updated = append(updated, q)
		} else {
			created = append(created, q)
		}
	}

	if err := s.stores.Pastcasts.CreateMany(ctx, created); err != nil {
		return fmt.Errorf("platforms: create pastcast questions for %s: %w", p.Name(), err)
	}
	for _, q := range updated {
		if err := s.stores.Pastcasts.Update(ctx, q); err != nil {
			return fmt.Errorf("platforms: update pastcast question %s: %w", q.ID, err)
		}
	}

	deleted := 0
	if !result.Partial {
		if err := s.stores.Pastcasts.DeleteMany(ctx, deletedIDs); err != nil {
			return fmt.Errorf("platforms: delete pastcast questions for %s: %w", p.Name(), err)
		}
		deleted = len(deletedIDs)
	}

	logger.Info("sync complete",
		slog.Int("created", len(created)),
		slog.Int("updated", len(updated)),
		slog.Int("deleted", deleted),
	)

	if len(result.Comments) > 0 {
		if err := s.syncComments(ctx, logger, p, result.Comments); err != nil {
			return err
		}
	}
	return nil
}

// syncComments applies the same create/update partition as questions but has
// no deletion step at all: discussion threads are append-only.
func (s *Syncer) syncComments(ctx context.Context, logger *slog.Logger, p *Platform, fetched []FetchedComment) error {
	stored, err := s.stores.Comments.ListByPlatform(ctx, p.Name())
	if err != nil {
		return fmt.Errorf("platforms: list comments for %s: %w", p.Name(), err)
	}

	storedIDs := make(map[string]struct{}, len(stored))
	for _, c := range stored {
		storedIDs[c.ID] = struct{}{}
	}

	var created, updated []domain.Comment
	for _, f := range fetched {
		c := p.prepareComment(f)
		if _, ok := storedIDs[c.ID]; ok {
			updated = append(updated, c)
		} else {
			created = append(created, c)
		}
	}

	if err := s.stores.Comments.CreateMany(ctx, created); err != nil {
		return fmt.Errorf("platforms: create comments for %s: %w", p.Name(), err)
	}
	for _, c := range updated {
		if err := s.stores.Comments.Update(ctx, c); err != nil {
			return fmt.Errorf("platforms: update comment %s: %w", c.ID, err)
		}
	}

	logger.Info("comment sync complete",
		slog.Int("created", len(created)),
		slog.Int("updated", len(updated)),
	)
	return nil
}

// UpsertQuestion prepares and upserts a single live question outside the
// reconciliation path. Used by manual refresh tooling.
func (s *Syncer) UpsertQuestion(ctx context.Context, p *Platform, f FetchedQuestion) (domain.Question, error) {
	if p.Version() == VersionPastcast {
		return domain.Question{}, fmt.Errorf("platforms: platform %q is pastcast-only", p.Name())
	}
	q := p.prepareQuestion(f, s.now().UTC())
	out, err := s.stores.Questions.Upsert(ctx, q)
	if err != nil {
		return domain.Question{}, fmt.Errorf("platforms: upsert question %s: %w", q.ID, err)
	}
	return out, nil
}
