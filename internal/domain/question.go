// Package domain defines the core types persisted by the aggregator and the
// store contracts the sync engine depends on. It has no external dependencies
// so that platform packages and stores can share it freely.
package domain

import "time"

// QuestionOption is a single named outcome with its current probability.
type QuestionOption struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// QualityIndicators carries platform-reported metrics plus the derived star
// score. All metrics are optional; platforms report whatever they have.
type QualityIndicators struct {
	Stars          int      `json:"stars"`
	NumForecasts   *float64 `json:"numforecasts,omitempty"`
	NumForecasters *float64 `json:"numforecasters,omitempty"`
	Volume         *float64 `json:"volume,omitempty"`
	Liquidity      *float64 `json:"liquidity,omitempty"`
	OpenInterest   *float64 `json:"open_interest,omitempty"`
	Spread         *float64 `json:"spread,omitempty"`
}

// Question is a forecasting question currently tracked from a live platform.
//
// ID follows the "<platform>-<upstream id>" convention and is stable across
// syncs for the same upstream item. FirstSeen is stamped once at creation and
// never overwritten afterwards.
type Question struct {
	ID                string            `json:"id"`
	Platform          string            `json:"platform"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	URL               string            `json:"url"`
	Options           []QuestionOption  `json:"options"`
	QualityIndicators QualityIndicators `json:"qualityindicators"`
	Extra             map[string]any    `json:"extra"`
	Fetched           time.Time         `json:"fetched"`
	FirstSeen         time.Time         `json:"firstSeen"`
}

// PastcastQuestion is a resolved binary question retained for backtesting.
// Its lifecycle is distinct from Question: it is only ever soft-deleted via
// the IsDeleted flag by out-of-band tooling, and its VantageDate is derived
// deterministically from its ID, so re-syncs reproduce it bit-for-bit.
type PastcastQuestion struct {
	ID                             string    `json:"id"`
	Platform                       string    `json:"platform"`
	Title                          string    `json:"title"`
	Description                    string    `json:"description"`
	URL                            string    `json:"url"`
	BinaryResolution               bool      `json:"binaryResolution"`
	VantageDate                    time.Time `json:"vantageDate"`
	VantageAggregateBinaryForecast *float64  `json:"vantageAggregateBinaryForecast"`
	Fetched                        time.Time `json:"fetched"`
	IsDeleted                      bool      `json:"isDeleted"`
}

// Comment is a discussion comment attached to a PastcastQuestion. Only
// comments created strictly before the question's vantage date may be
// persisted; anything later would leak post-vantage information.
type Comment struct {
	ID              string    `json:"id"`
	QuestionID      string    `json:"questionId"`
	Platform        string    `json:"platform"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"createdAt"`
	VoteTotal       int       `json:"voteTotal"`
	ParentCommentID *string   `json:"parentCommentId"`
	AuthorName      string    `json:"authorName"`
	PredictionValue *float64  `json:"predictionValue"`
}

// HistoryEntry is an immutable snapshot of a Question's fields at the moment
// of a create/update sync, keyed by IDRef (the question's ID). The sequence
// within an IDRef is implicit in insertion order.
type HistoryEntry struct {
	IDRef string `json:"idref"`
	Question
}
