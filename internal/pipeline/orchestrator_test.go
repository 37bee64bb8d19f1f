package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/metasync/internal/domain"
	"github.com/forecastlab/metasync/internal/platforms"
)

// memoryQuestionStore persists questions in memory and fails writes for the
// "broken" platform to exercise failure isolation.
type memoryQuestionStore struct {
	byID map[string]domain.Question
}

func (s *memoryQuestionStore) ListByPlatform(_ context.Context, platform string) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range s.byID {
		if q.Platform == platform {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *memoryQuestionStore) CreateMany(_ context.Context, questions []domain.Question) error {
	for _, q := range questions {
		if q.Platform == "broken" {
			return errors.New("disk full")
		}
		s.byID[q.ID] = q
	}
	return nil
}

func (s *memoryQuestionStore) Update(_ context.Context, q domain.Question) error {
	s.byID[q.ID] = q
	return nil
}

func (s *memoryQuestionStore) DeleteMany(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(s.byID, id)
	}
	return nil
}

func (s *memoryQuestionStore) Upsert(_ context.Context, q domain.Question) (domain.Question, error) {
	s.byID[q.ID] = q
	return q, nil
}

type noopHistoryStore struct{}

func (noopHistoryStore) CreateMany(context.Context, []domain.HistoryEntry) error { return nil }

func staticPlatform(name string) platforms.Platform {
	return platforms.NewV1Platform(name, name, "#000",
		func(context.Context) ([]platforms.FetchedQuestion, error) {
			return []platforms.FetchedQuestion{{ID: name + "-1"}}, nil
		},
		func(platforms.FetchedQuestion) int { return 1 },
	)
}

func TestSyncAllIsolatesPlatformFailures(t *testing.T) {
	store := &memoryQuestionStore{byID: map[string]domain.Question{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	syncer := platforms.NewSyncer(platforms.Stores{
		Questions: store,
		History:   noopHistoryStore{},
	}, logger)

	registry, err := platforms.NewRegistry(
		staticPlatform("broken"),
		staticPlatform("healthy"),
	)
	require.NoError(t, err)

	o := NewOrchestrator(syncer, registry, nil, "0 3 * * *", "", logger)
	err = o.SyncAll(context.Background())

	// The broken platform's error surfaces, but the healthy one still synced.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, store.byID, "healthy-1")
}

func TestRunRejectsBadSchedule(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registry, err := platforms.NewRegistry()
	require.NoError(t, err)
	syncer := platforms.NewSyncer(platforms.Stores{}, logger)

	o := NewOrchestrator(syncer, registry, nil, "not a cron", "", logger)
	assert.Error(t, o.Run(context.Background()))
}
