package platforms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewV1PlatformRequiresStarScorer(t *testing.T) {
	assert.Panics(t, func() {
		NewV1Platform("x", "X", "#000", nil, nil)
	})
}

func TestNewV2PlatformRequiresStarScorer(t *testing.T) {
	assert.Panics(t, func() {
		NewV2Platform("x", "X", "#000", nil, nil, nil)
	})
}

func TestNewPastcastPlatformHasNoStarScorer(t *testing.T) {
	p := NewPastcastPlatform("x", "X", "#000", []string{"id"}, nil)
	assert.Equal(t, VersionPastcast, p.Version())
	assert.False(t, p.hasFetcher())
}

func TestCheckArgs(t *testing.T) {
	p := NewV2Platform("x", "X", "#000", []string{"id", "cursor"}, nil, flatStars)

	require.NoError(t, p.checkArgs(nil))
	require.NoError(t, p.checkArgs(map[string]string{"id": "1", "cursor": "abc"}))

	err := p.checkArgs(map[string]string{"limit": "10"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limit")
}

func TestPrepareQuestionStampsDerivedFields(t *testing.T) {
	p := NewV1Platform("x", "X", "#000", nil, func(q FetchedQuestion) int {
		if q.ID == "x-big" {
			return 4
		}
		return 1
	})

	fetched := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	q := p.prepareQuestion(FetchedQuestion{ID: "x-big", Title: "Big"}, fetched)

	assert.Equal(t, "x", q.Platform)
	assert.Equal(t, 4, q.QualityIndicators.Stars)
	assert.Equal(t, fetched, q.Fetched)
	assert.True(t, q.FirstSeen.IsZero())
	// Extra is always queryable, never nil.
	assert.NotNil(t, q.Extra)
}

func TestPrepareCommentStampsPlatform(t *testing.T) {
	p := NewPastcastPlatform("x", "X", "#000", nil, nil)
	parent := "x-c0"
	c := p.prepareComment(FetchedComment{ID: "x-c1", QuestionID: "x-1", ParentCommentID: &parent})
	assert.Equal(t, "x", c.Platform)
	assert.Equal(t, &parent, c.ParentCommentID)
}
