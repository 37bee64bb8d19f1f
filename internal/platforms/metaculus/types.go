package metaculus

import "time"

// Question item types returned by the listing API.
const (
	typeGroup    = "group"
	typeForecast = "forecast"
	typeClaim    = "claim"
)

// ambiguousResolution is the sentinel the API uses for questions resolved as
// ambiguous.
const ambiguousResolution = -1

// APIPossibilities describes a question's outcome space.
type APIPossibilities struct {
	Type  string    `json:"type"` // "binary", "continuous", ...
	Scale *APIScale `json:"scale,omitempty"`
}

// APIScale is present for scaled (date or numeric) questions.
type APIScale struct {
	Format string `json:"format"` // "date", "num", ...
	Min    string `json:"min"`
	Max    string `json:"max"`
}

// APIPredictionPoint is one observation in the community aggregate history.
// T is seconds since the Unix epoch; X1.Q2 is the median binary forecast.
type APIPredictionPoint struct {
	T  float64 `json:"t"`
	X1 struct {
		Q2 *float64 `json:"q2"`
	} `json:"x1"`
}

// APICommunityPrediction holds the aggregate forecast history, ordered by
// time ascending.
type APICommunityPrediction struct {
	History []APIPredictionPoint `json:"history"`
}

// APIQuestion is one item from the questions listing. The same shape covers
// group parents, plain forecasts, and group sub-questions.
type APIQuestion struct {
	ID                  int                    `json:"id"`
	Type                string                 `json:"type"`
	Title               string                 `json:"title"`
	PageURL             string                 `json:"page_url"`
	Group               *int                   `json:"group"`
	PublishTime         time.Time              `json:"publish_time"`
	CloseTime           time.Time              `json:"close_time"`
	ResolveTime         time.Time              `json:"resolve_time"`
	Resolution          *float64               `json:"resolution"`
	Possibilities       APIPossibilities       `json:"possibilities"`
	CommunityPrediction APICommunityPrediction `json:"community_prediction"`
}

// APIComment is one raw comment from the question detail payload.
type APIComment struct {
	ID          int       `json:"id"`
	AuthorName  string    `json:"author_name"`
	CommentText string    `json:"comment_text"`
	CreatedTime time.Time `json:"created_time"`
	NumLikes    int       `json:"num_likes"`
	Parent      *int      `json:"parent"`
	Prediction  *float64  `json:"prediction_value"`
}

// APIQuestionDetail is the single-question payload: the question itself plus
// its sub-questions (for groups) and its comment thread (for forecasts).
type APIQuestionDetail struct {
	APIQuestion
	Description  string        `json:"description"`
	SubQuestions []APIQuestion `json:"sub_questions"`
	Comments     []APIComment  `json:"comments"`
}

// APIQuestionList is one page of the questions listing. Next is the cursor
// URL of the following page, or empty when done.
type APIQuestionList struct {
	Results []APIQuestion `json:"results"`
	Next    *string       `json:"next"`
}
