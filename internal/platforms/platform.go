// Package platforms defines the platform descriptor, the versioned fetcher
// contract, and the synchronization engine that reconciles fetched snapshots
// against the stores.
package platforms

import (
	"context"
	"fmt"
	"time"

	"github.com/forecastlab/metasync/internal/domain"
)

// Version selects one of the three fetcher contract shapes a platform can
// declare.
type Version string

const (
	VersionV1       Version = "v1"
	VersionV2       Version = "v2"
	VersionPastcast Version = "pastcast"
)

// FetchedQuestion is a question candidate produced by a platform fetcher
// before the engine stamps platform name, fetch time, and star score.
type FetchedQuestion struct {
	ID                string
	Title             string
	Description       string
	URL               string
	Options           []domain.QuestionOption
	QualityIndicators domain.QualityIndicators // Stars is overwritten by the platform's scorer
	Extra             map[string]any
}

// FetchedPastcastQuestion is a pastcast candidate produced by a platform
// fetcher before the engine stamps platform name and fetch time.
type FetchedPastcastQuestion struct {
	ID                             string
	Title                          string
	Description                    string
	URL                            string
	BinaryResolution               bool
	VantageDate                    time.Time
	VantageAggregateBinaryForecast *float64
}

// FetchedComment is a comment candidate attached to a pastcast question. IDs
// and parent references are already platform-prefixed by the transformer.
type FetchedComment struct {
	ID              string
	QuestionID      string
	Content         string
	CreatedAt       time.Time
	VoteTotal       int
	ParentCommentID *string
	AuthorName      string
	PredictionValue *float64
}

// FetchResult is the outcome of a v2 fetch. Partial means the fetch covered
// only a subset of the platform's questions, so the engine must not delete
// stored records that are absent from it.
type FetchResult struct {
	Questions []FetchedQuestion
	Partial   bool
}

// PastcastFetchResult is the outcome of a pastcast fetch.
type PastcastFetchResult struct {
	Questions []FetchedPastcastQuestion
	Comments  []FetchedComment
	Partial   bool
}

// FetcherV1 is a zero-argument fetcher. Its result is always treated as a
// full (non-partial) batch. A nil slice with a nil error is the upstream
// failure signal.
type FetcherV1 func(ctx context.Context) ([]FetchedQuestion, error)

// FetcherV2 accepts named arguments restricted to the platform's declared
// FetcherArgs. A nil result with a nil error is the upstream failure signal.
type FetcherV2 func(ctx context.Context, args map[string]string) (*FetchResult, error)

// PastcastFetcher has the v2 argument contract but returns pastcast questions
// and comments.
type PastcastFetcher func(ctx context.Context, args map[string]string) (*PastcastFetchResult, error)

// StarsFunc scores a fetched question on the 0-5 star scale.
type StarsFunc func(q FetchedQuestion) int

// Platform binds a platform's identity to exactly one fetcher contract
// version. The version/fetcher/scorer pairing is enforced by the three
// constructors; a Platform can never carry a fetcher of the wrong shape.
type Platform struct {
	name  string // short name used in ids and the platform db column
	label string // display name
	color string

	version        Version
	fetcherArgs    []string
	v1             FetcherV1
	v2             FetcherV2
	pastcast       PastcastFetcher
	calculateStars StarsFunc
}

// NewV1Platform declares a v1 platform. A nil fetcher means "not configured"
// and is a no-op at sync time; the star scorer is mandatory.
func NewV1Platform(name, label, color string, fetcher FetcherV1, calculateStars StarsFunc) Platform {
	if calculateStars == nil {
		panic(fmt.Sprintf("platforms: v1 platform %q requires a star scorer", name))
	}
	return Platform{
		name:           name,
		label:          label,
		color:          color,
		version:        VersionV1,
		v1:             fetcher,
		calculateStars: calculateStars,
	}
}

// NewV2Platform declares a v2 platform with its accepted argument names.
func NewV2Platform(name, label, color string, fetcherArgs []string, fetcher FetcherV2, calculateStars StarsFunc) Platform {
	if calculateStars == nil {
		panic(fmt.Sprintf("platforms: v2 platform %q requires a star scorer", name))
	}
	return Platform{
		name:           name,
		label:          label,
		color:          color,
		version:        VersionV2,
		fetcherArgs:    fetcherArgs,
		v2:             fetcher,
		calculateStars: calculateStars,
	}
}

// NewPastcastPlatform declares a pastcast platform. Pastcast questions are
// not ranked, so there is no star scorer.
func NewPastcastPlatform(name, label, color string, fetcherArgs []string, fetcher PastcastFetcher) Platform {
	return Platform{
		name:        name,
		label:       label,
		color:       color,
		version:     VersionPastcast,
		fetcherArgs: fetcherArgs,
		pastcast:    fetcher,
	}
}

// Name returns the short platform name used in record ids.
func (p *Platform) Name() string { return p.name }

// Label returns the display name.
func (p *Platform) Label() string { return p.label }

// Color returns the display color.
func (p *Platform) Color() string { return p.color }

// Version returns the fetcher contract version.
func (p *Platform) Version() Version { return p.version }

// FetcherArgs returns the argument names the fetcher accepts.
func (p *Platform) FetcherArgs() []string { return p.fetcherArgs }

// hasFetcher reports whether the platform is configured with a fetcher.
func (p *Platform) hasFetcher() bool {
	switch p.version {
	case VersionV1:
		return p.v1 != nil
	case VersionV2:
		return p.v2 != nil
	case VersionPastcast:
		return p.pastcast != nil
	}
	return false
}

// checkArgs rejects argument names the platform does not declare.
func (p *Platform) checkArgs(args map[string]string) error {
	for k := range args {
		known := false
		for _, name := range p.fetcherArgs {
			if k == name {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("platforms: platform %q does not accept argument %q", p.name, k)
		}
	}
	return nil
}

// prepareQuestion turns a fetched candidate into a storable Question. The
// star score is computed here so transformers never deal with ranking.
// FirstSeen is left zero; the engine stamps it at insert time only.
func (p *Platform) prepareQuestion(q FetchedQuestion, fetched time.Time) domain.Question {
	extra := q.Extra
	if extra == nil {
		extra = map[string]any{}
	}
	indicators := q.QualityIndicators
	indicators.Stars = p.calculateStars(q)
	return domain.Question{
		ID:                q.ID,
		Platform:          p.name,
		Title:             q.Title,
		Description:       q.Description,
		URL:               q.URL,
		Options:           q.Options,
		QualityIndicators: indicators,
		Extra:             extra,
		Fetched:           fetched,
	}
}

// preparePastcastQuestion turns a fetched pastcast candidate into a storable
// record.
func (p *Platform) preparePastcastQuestion(q FetchedPastcastQuestion, fetched time.Time) domain.PastcastQuestion {
	return domain.PastcastQuestion{
		ID:                             q.ID,
		Platform:                       p.name,
		Title:                          q.Title,
		Description:                    q.Description,
		URL:                            q.URL,
		BinaryResolution:               q.BinaryResolution,
		VantageDate:                    q.VantageDate,
		VantageAggregateBinaryForecast: q.VantageAggregateBinaryForecast,
		Fetched:                        fetched,
	}
}

// prepareComment stamps the platform name onto a fetched comment.
func (p *Platform) prepareComment(c FetchedComment) domain.Comment {
	return domain.Comment{
		ID:              c.ID,
		QuestionID:      c.QuestionID,
		Platform:        p.name,
		Content:         c.Content,
		CreatedAt:       c.CreatedAt,
		VoteTotal:       c.VoteTotal,
		ParentCommentID: c.ParentCommentID,
		AuthorName:      c.AuthorName,
		PredictionValue: c.PredictionValue,
	}
}
