// Package metaculus implements the Metaculus pastcast platform: it expands
// upstream items into resolved binary questions sampled at a deterministic
// vantage date, together with the pre-vantage slice of their comment threads.
package metaculus

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/forecastlab/metasync/internal/domain"
	"github.com/forecastlab/metasync/internal/platforms"
	"github.com/forecastlab/metasync/internal/seedrand"
)

// Name is the short platform name used in record ids.
const Name = "metaculus"

// DefaultBaseURL is the production site root.
const DefaultBaseURL = "https://www.metaculus.com"

// api is the slice of Client the transformer needs; tests substitute a fake.
type api interface {
	ListURL() string
	FetchPage(ctx context.Context, cursorURL string) (*APIQuestionList, error)
	FetchDetail(ctx context.Context, id int) (*APIQuestionDetail, error)
}

// New declares the Metaculus platform. The throttle paces every upstream
// call; the exact delay is a tunable, not a correctness contract.
func New(baseURL string, throttle domain.Throttle, logger *slog.Logger) platforms.Platform {
	client := NewClient(baseURL)
	log := logger.With(slog.String("platform", Name))
	return platforms.NewPastcastPlatform(
		Name,
		"Metaculus",
		"#006669",
		[]string{"id"},
		func(ctx context.Context, args map[string]string) (*platforms.PastcastFetchResult, error) {
			t := &transformer{
				api:      client,
				baseURL:  baseURL,
				throttle: throttle,
				logger:   log,
				now:      time.Now().UTC(),
			}
			return t.fetch(ctx, args)
		},
	)
}

// transformer holds per-run state. now is the sync start time; the skip
// filter compares close/resolve dates against it so a long run stays
// self-consistent.
type transformer struct {
	api      api
	baseURL  string
	throttle domain.Throttle
	logger   *slog.Logger
	now      time.Time
}

// fetch runs either a single-question partial fetch (args["id"]) or a full
// paginated crawl.
func (t *transformer) fetch(ctx context.Context, args map[string]string) (*platforms.PastcastFetchResult, error) {
	if raw := args["id"]; raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("metaculus: invalid id argument %q: %w", raw, err)
		}
		if err := t.throttle.Wait(ctx); err != nil {
			return nil, err
		}
		detail, err := t.api.FetchDetail(ctx, id)
		if err != nil {
			return nil, err
		}
		questions, comments, err := t.expand(ctx, detail.APIQuestion)
		if err != nil {
			return nil, err
		}
		return &platforms.PastcastFetchResult{
			Questions: questions,
			Comments:  comments,
			Partial:   true,
		}, nil
	}

	var (
		allQuestions []platforms.FetchedPastcastQuestion
		allComments  []platforms.FetchedComment
	)

	next := t.api.ListURL()
	page := 1
	for next != "" {
		t.logger.Info("fetching page", slog.Int("page", page), slog.String("cursor", next))

		if err := t.throttle.Wait(ctx); err != nil {
			return nil, err
		}
		list, err := t.api.FetchPage(ctx, next)
		if err != nil {
			return nil, err
		}

		for _, item := range list.Results {
			questions, comments, err := t.expand(ctx, item)
			if err != nil {
				return nil, err
			}
			allQuestions = append(allQuestions, questions...)
			allComments = append(allComments, comments...)
		}

		if list.Next == nil {
			break
		}
		next = *list.Next
		page++
	}

	return &platforms.PastcastFetchResult{
		Questions: allQuestions,
		Comments:  allComments,
		Partial:   false,
	}, nil
}

// expand turns one upstream item into zero, one, or many candidates:
// zero when the item is skipped, one for a plain forecast, many for a group.
func (t *transformer) expand(ctx context.Context, q APIQuestion) ([]platforms.FetchedPastcastQuestion, []platforms.FetchedComment, error) {
	switch q.Type {
	case typeGroup:
		if err := t.throttle.Wait(ctx); err != nil {
			return nil, nil, err
		}
		detail, err := t.api.FetchDetail(ctx, q.ID)
		if err != nil {
			return nil, nil, err
		}
		if detail.Type != typeGroup {
			return nil, nil, fmt.Errorf("metaculus: question %d: expected group, got %q", q.ID, detail.Type)
		}

		description := cleanDescription(detail.Description)
		var questions []platforms.FetchedPastcastQuestion
		for _, sub := range detail.SubQuestions {
			if t.skip(sub) {
				continue
			}
			fq := t.buildQuestion(sub)
			fq.Title = fmt.Sprintf("%s (%s)", q.Title, sub.Title)
			fq.Description = description
			fq.URL = fmt.Sprintf("%s%s?sub-question=%d", t.baseURL, q.PageURL, sub.ID)
			questions = append(questions, fq)
		}
		return questions, nil, nil

	case typeForecast:
		if q.Group != nil {
			// Sub-question; handled when its parent group is processed.
			return nil, nil, nil
		}
		if t.skip(q) {
			return nil, nil, nil
		}

		if err := t.throttle.Wait(ctx); err != nil {
			return nil, nil, err
		}
		detail, err := t.api.FetchDetail(ctx, q.ID)
		if err != nil {
			return nil, nil, err
		}

		fq := t.buildQuestion(q)
		fq.Title = q.Title
		fq.Description = cleanDescription(detail.Description)
		fq.URL = t.baseURL + q.PageURL

		return []platforms.FetchedPastcastQuestion{fq}, t.extractComments(detail.Comments, fq), nil

	default:
		if q.Type != typeClaim {
			t.logger.Warn("unknown question type, skipping",
				slog.Int("id", q.ID),
				slog.String("type", q.Type),
			)
		}
		return nil, nil, nil
	}
}

// skip excludes candidates unsuitable for backtesting: unresolved or
// ambiguous, non-binary, without aggregate history, or questions whose
// resolution date data would give away the answer.
func (t *transformer) skip(q APIQuestion) bool {
	if q.Resolution == nil || *q.Resolution == ambiguousResolution {
		return true
	}
	if q.Possibilities.Type != "binary" {
		return true
	}
	if len(q.CommunityPrediction.History) == 0 {
		return true
	}

	// A date scale whose max is still ahead leaks information: knowing the
	// question resolved cuts off part of the possible range.
	if scale := q.Possibilities.Scale; scale != nil && scale.Format == "date" {
		if max, err := parseScaleDate(scale.Max); err == nil && max.After(t.now) {
			return true
		}
	}

	// Still-open questions cannot be backtested.
	if effectiveEnd(q).After(t.now) {
		return true
	}

	return false
}

// buildQuestion computes the id, vantage date, and vantage aggregate for an
// accepted candidate. Title, description, and URL are filled by the caller.
func (t *transformer) buildQuestion(q APIQuestion) platforms.FetchedPastcastQuestion {
	id := fmt.Sprintf("%s-%d", Name, q.ID)

	start := q.PublishTime
	end := effectiveEnd(q)

	// The fraction is derived solely from the id, so re-fetching the same
	// question reproduces the same vantage date bit-for-bit.
	fraction := seedrand.Fraction(id)
	vantage := start.Add(time.Duration(fraction * float64(end.Sub(start))))

	return platforms.FetchedPastcastQuestion{
		ID:                             id,
		BinaryResolution:               q.Resolution != nil && *q.Resolution == 1,
		VantageDate:                    vantage,
		VantageAggregateBinaryForecast: aggregateAt(q.CommunityPrediction.History, vantage),
	}
}

// aggregateAt walks the history (ordered by time ascending) and returns the
// last observation strictly before the vantage date, falling back to the
// earliest observation when none precedes it. A missing value stays nil.
func aggregateAt(history []APIPredictionPoint, vantage time.Time) *float64 {
	if len(history) == 0 {
		return nil
	}
	chosen := history[0]
	for i := len(history) - 1; i >= 0; i-- {
		if pointTime(history[i]).Before(vantage) {
			chosen = history[i]
			break
		}
	}
	return chosen.X1.Q2
}

// extractComments normalizes the raw thread and keeps only comments created
// strictly before the question's vantage date. The ordering check is done
// here regardless of upstream ordering: a comment at or after the vantage
// date would leak post-vantage information.
func (t *transformer) extractComments(raw []APIComment, q platforms.FetchedPastcastQuestion) []platforms.FetchedComment {
	var out []platforms.FetchedComment
	for _, c := range raw {
		if !c.CreatedTime.Before(q.VantageDate) {
			continue
		}
		var parent *string
		if c.Parent != nil {
			ref := fmt.Sprintf("%s-%d", Name, *c.Parent)
			parent = &ref
		}
		out = append(out, platforms.FetchedComment{
			ID:              fmt.Sprintf("%s-%d", Name, c.ID),
			QuestionID:      q.ID,
			Content:         c.CommentText,
			CreatedAt:       c.CreatedTime,
			VoteTotal:       c.NumLikes,
			ParentCommentID: parent,
			AuthorName:      c.AuthorName,
			PredictionValue: c.Prediction,
		})
	}
	return out
}

// effectiveEnd is the earlier of close and resolve time; a zero resolve time
// (not reported) falls back to close time.
func effectiveEnd(q APIQuestion) time.Time {
	if !q.ResolveTime.IsZero() && q.ResolveTime.Before(q.CloseTime) {
		return q.ResolveTime
	}
	return q.CloseTime
}

// pointTime converts a history observation timestamp to a time.Time.
func pointTime(p APIPredictionPoint) time.Time {
	sec := int64(p.T)
	nsec := int64((p.T - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// parseScaleDate parses a date-scale bound, which the API reports either as a
// plain date or a full timestamp.
func parseScaleDate(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.Parse("2006-01-02", s)
}
