package metaculus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/metasync/internal/platforms"
	"github.com/forecastlab/metasync/internal/seedrand"
)

type fakeAPI struct {
	pages   []*APIQuestionList
	details map[int]*APIQuestionDetail

	pageCalls   int
	detailCalls []int
}

func (f *fakeAPI) ListURL() string { return "fake://list?page=0" }

func (f *fakeAPI) FetchPage(_ context.Context, _ string) (*APIQuestionList, error) {
	if f.pageCalls >= len(f.pages) {
		return nil, fmt.Errorf("unexpected page fetch %d", f.pageCalls)
	}
	page := f.pages[f.pageCalls]
	f.pageCalls++
	return page, nil
}

func (f *fakeAPI) FetchDetail(_ context.Context, id int) (*APIQuestionDetail, error) {
	f.detailCalls = append(f.detailCalls, id)
	d, ok := f.details[id]
	if !ok {
		return nil, fmt.Errorf("no detail for question %d", id)
	}
	return d, nil
}

func newTransformer(api *fakeAPI, now time.Time) *transformer {
	return &transformer{
		api:      api,
		baseURL:  "https://example.com",
		throttle: platforms.NewFixedDelayThrottle(0),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      now,
	}
}

func floatPtr(v float64) *float64 { return &v }

// resolvedBinary builds a question that passes the skip filter.
func resolvedBinary(id int, resolution float64) APIQuestion {
	publish := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	closeAt := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	return APIQuestion{
		ID:            id,
		Type:          typeForecast,
		Title:         fmt.Sprintf("Question %d", id),
		PageURL:       fmt.Sprintf("/questions/%d/", id),
		PublishTime:   publish,
		CloseTime:     closeAt,
		ResolveTime:   closeAt,
		Resolution:    &resolution,
		Possibilities: APIPossibilities{Type: "binary"},
		CommunityPrediction: APICommunityPrediction{
			History: []APIPredictionPoint{
				historyPoint(publish.Add(24*time.Hour), 0.3),
				historyPoint(publish.Add(30*24*time.Hour), 0.5),
				historyPoint(publish.Add(300*24*time.Hour), 0.9),
			},
		},
	}
}

func historyPoint(at time.Time, q2 float64) APIPredictionPoint {
	p := APIPredictionPoint{T: float64(at.Unix())}
	p.X1.Q2 = &q2
	return p
}

func TestSkipFilter(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	tr := newTransformer(&fakeAPI{}, now)

	assert.False(t, tr.skip(resolvedBinary(1, 1)))

	unresolved := resolvedBinary(2, 1)
	unresolved.Resolution = nil
	assert.True(t, tr.skip(unresolved))

	ambiguous := resolvedBinary(3, ambiguousResolution)
	assert.True(t, tr.skip(ambiguous))

	continuous := resolvedBinary(4, 1)
	continuous.Possibilities.Type = "continuous"
	assert.True(t, tr.skip(continuous))

	noHistory := resolvedBinary(5, 1)
	noHistory.CommunityPrediction.History = nil
	assert.True(t, tr.skip(noHistory))

	futureScale := resolvedBinary(6, 1)
	futureScale.Possibilities.Scale = &APIScale{Format: "date", Min: "2019-01-01", Max: "2030-01-01"}
	assert.True(t, tr.skip(futureScale))

	pastScale := resolvedBinary(7, 1)
	pastScale.Possibilities.Scale = &APIScale{Format: "date", Min: "2019-01-01", Max: "2021-06-01"}
	assert.False(t, tr.skip(pastScale))

	stillOpen := resolvedBinary(8, 1)
	stillOpen.CloseTime = now.Add(24 * time.Hour)
	stillOpen.ResolveTime = stillOpen.CloseTime
	assert.True(t, tr.skip(stillOpen))
}

func TestBuildQuestionVantageDeterministic(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	tr := newTransformer(&fakeAPI{}, now)

	q := resolvedBinary(42, 1)
	first := tr.buildQuestion(q)
	second := tr.buildQuestion(q)

	assert.Equal(t, "metaculus-42", first.ID)
	assert.True(t, first.BinaryResolution)
	assert.Equal(t, first.VantageDate, second.VantageDate)
	assert.Equal(t, first.VantageAggregateBinaryForecast, second.VantageAggregateBinaryForecast)

	// The vantage date lands inside the question's lifetime.
	assert.False(t, first.VantageDate.Before(q.PublishTime))
	assert.True(t, first.VantageDate.Before(q.CloseTime))
}

func TestBuildQuestionUsesEarlierOfCloseAndResolve(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	tr := newTransformer(&fakeAPI{}, now)

	q := resolvedBinary(42, 0)
	q.ResolveTime = q.PublishTime.Add(30 * 24 * time.Hour) // resolved early

	fq := tr.buildQuestion(q)
	assert.False(t, fq.BinaryResolution)
	assert.True(t, fq.VantageDate.Before(q.ResolveTime.Add(time.Nanosecond)))
}

func TestAggregateAt(t *testing.T) {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	history := []APIPredictionPoint{
		historyPoint(base, 0.1),
		historyPoint(base.Add(10*24*time.Hour), 0.4),
		historyPoint(base.Add(20*24*time.Hour), 0.8),
	}

	// Last observation strictly before the vantage date wins.
	got := aggregateAt(history, base.Add(15*24*time.Hour))
	require.NotNil(t, got)
	assert.Equal(t, 0.4, *got)

	// A vantage at exactly an observation's time excludes that observation.
	got = aggregateAt(history, base.Add(10*24*time.Hour))
	require.NotNil(t, got)
	assert.Equal(t, 0.1, *got)

	// A vantage before all observations falls back to the earliest one.
	got = aggregateAt(history, base.Add(-time.Hour))
	require.NotNil(t, got)
	assert.Equal(t, 0.1, *got)

	assert.Nil(t, aggregateAt(nil, base))
}

func TestExtractCommentsPreVantageOnly(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	tr := newTransformer(&fakeAPI{}, now)

	vantage := time.Date(2020, 7, 1, 0, 0, 0, 0, time.UTC)
	fq := platforms.FetchedPastcastQuestion{ID: "metaculus-42", VantageDate: vantage}

	parent := 100
	raw := []APIComment{
		{ID: 100, AuthorName: "alice", CommentText: "before", CreatedTime: vantage.Add(-time.Hour), NumLikes: 3, Prediction: floatPtr(0.6)},
		{ID: 101, AuthorName: "bob", CommentText: "just before", CreatedTime: vantage.Add(-time.Second), Parent: &parent},
		{ID: 102, AuthorName: "carol", CommentText: "at vantage", CreatedTime: vantage},
		{ID: 103, AuthorName: "dan", CommentText: "after", CreatedTime: vantage.Add(time.Hour)},
	}

	out := tr.extractComments(raw, fq)
	require.Len(t, out, 2)

	assert.Equal(t, "metaculus-100", out[0].ID)
	assert.Equal(t, "metaculus-42", out[0].QuestionID)
	assert.Equal(t, 3, out[0].VoteTotal)
	require.NotNil(t, out[0].PredictionValue)
	assert.Equal(t, 0.6, *out[0].PredictionValue)

	assert.Equal(t, "metaculus-101", out[1].ID)
	require.NotNil(t, out[1].ParentCommentID)
	assert.Equal(t, "metaculus-100", *out[1].ParentCommentID)
}

func TestExpandForecast(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	q := resolvedBinary(7, 1)
	fraction := seedrand.Fraction("metaculus-7")
	vantage := q.PublishTime.Add(time.Duration(fraction * float64(q.CloseTime.Sub(q.PublishTime))))
	api := &fakeAPI{details: map[int]*APIQuestionDetail{
		7: {
			APIQuestion: q,
			Description: "Will it **happen **?",
			Comments: []APIComment{
				{ID: 1, CommentText: "early", CreatedTime: vantage.Add(-time.Second)},
			},
		},
	}}
	tr := newTransformer(api, now)

	questions, comments, err := tr.expand(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, questions, 1)

	fq := questions[0]
	assert.Equal(t, "metaculus-7", fq.ID)
	assert.Equal(t, "Question 7", fq.Title)
	assert.Equal(t, "Will it **happen**?", fq.Description)
	assert.Equal(t, "https://example.com/questions/7/", fq.URL)
	assert.Equal(t, vantage, fq.VantageDate)
	assert.Len(t, comments, 1)
}

func TestExpandGroup(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	groupID := 50
	sub1 := resolvedBinary(51, 1)
	sub1.Title = "by 2021"
	sub1.Group = &groupID
	sub2 := resolvedBinary(52, 0)
	sub2.Title = "by 2022"
	sub2.Group = &groupID
	skipped := resolvedBinary(53, 1)
	skipped.Resolution = nil
	skipped.Group = &groupID

	group := APIQuestion{ID: groupID, Type: typeGroup, Title: "Milestones", PageURL: "/questions/50/"}
	api := &fakeAPI{details: map[int]*APIQuestionDetail{
		groupID: {
			APIQuestion:  APIQuestion{ID: groupID, Type: typeGroup},
			Description:  "group intro",
			SubQuestions: []APIQuestion{sub1, sub2, skipped},
		},
	}}
	tr := newTransformer(api, now)

	questions, comments, err := tr.expand(context.Background(), group)
	require.NoError(t, err)
	assert.Empty(t, comments)
	require.Len(t, questions, 2)

	assert.Equal(t, "Milestones (by 2021)", questions[0].Title)
	assert.Equal(t, "group intro", questions[0].Description)
	assert.Equal(t, "https://example.com/questions/50/?sub-question=51", questions[0].URL)
	assert.True(t, questions[0].BinaryResolution)

	assert.Equal(t, "Milestones (by 2022)", questions[1].Title)
	assert.Equal(t, "https://example.com/questions/50/?sub-question=52", questions[1].URL)
	assert.False(t, questions[1].BinaryResolution)
}

func TestExpandSkipsSubQuestionsAtTopLevel(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	api := &fakeAPI{}
	tr := newTransformer(api, now)

	groupID := 50
	sub := resolvedBinary(51, 1)
	sub.Group = &groupID

	questions, comments, err := tr.expand(context.Background(), sub)
	require.NoError(t, err)
	assert.Empty(t, questions)
	assert.Empty(t, comments)
	assert.Empty(t, api.detailCalls)
}

func TestExpandIgnoresClaimsAndUnknownTypes(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	tr := newTransformer(&fakeAPI{}, now)

	for _, typ := range []string{typeClaim, "discussion"} {
		questions, comments, err := tr.expand(context.Background(), APIQuestion{ID: 1, Type: typ})
		require.NoError(t, err)
		assert.Empty(t, questions)
		assert.Empty(t, comments)
	}
}

func TestFetchPaginates(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	q1 := resolvedBinary(1, 1)
	q2 := resolvedBinary(2, 0)
	next := "fake://list?page=1"
	api := &fakeAPI{
		pages: []*APIQuestionList{
			{Results: []APIQuestion{q1}, Next: &next},
			{Results: []APIQuestion{q2}},
		},
		details: map[int]*APIQuestionDetail{
			1: {APIQuestion: q1, Description: "one"},
			2: {APIQuestion: q2, Description: "two"},
		},
	}
	tr := newTransformer(api, now)

	result, err := tr.fetch(context.Background(), nil)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.Partial)
	assert.Equal(t, 2, api.pageCalls)
	require.Len(t, result.Questions, 2)
	assert.Equal(t, "metaculus-1", result.Questions[0].ID)
	assert.Equal(t, "metaculus-2", result.Questions[1].ID)
}

func TestFetchSingleQuestionIsPartial(t *testing.T) {
	now := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	q := resolvedBinary(7, 1)
	api := &fakeAPI{details: map[int]*APIQuestionDetail{
		7: {APIQuestion: q, Description: "one"},
	}}
	tr := newTransformer(api, now)

	result, err := tr.fetch(context.Background(), map[string]string{"id": "7"})
	require.NoError(t, err)
	assert.True(t, result.Partial)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "metaculus-7", result.Questions[0].ID)

	_, err = tr.fetch(context.Background(), map[string]string{"id": "seven"})
	require.Error(t, err)
}
