package polymarket

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/forecastlab/metasync/internal/domain"
	"github.com/forecastlab/metasync/internal/platforms"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// APIMarket represents a market as returned by the Polymarket Gamma API.
type APIMarket struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Slug          string   `json:"slug"`
	Description   string   `json:"description"`
	Active        flexBool `json:"active"` // API may send bool or "true"/"false" string
	Closed        bool     `json:"closed"`
	Outcomes      string   `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	OutcomePrices string   `json:"outcomePrices"` // JSON-encoded: e.g. "[\"0.5\",\"0.5\"]"
	Volume        string   `json:"volume"`
	Liquidity     string   `json:"liquidity"`
	Spread        float64  `json:"spread"`
	EndDateISO    string   `json:"end_date_iso"`
}

// ToFetchedQuestion converts a Gamma market into a question candidate. The
// record id follows the "<platform>-<upstream id>" convention.
func (m *APIMarket) ToFetchedQuestion() (platforms.FetchedQuestion, error) {
	var names, prices []string
	if err := json.Unmarshal([]byte(m.Outcomes), &names); err != nil {
		return platforms.FetchedQuestion{}, fmt.Errorf("polymarket: market %s: decode outcomes: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(m.OutcomePrices), &prices); err != nil {
		return platforms.FetchedQuestion{}, fmt.Errorf("polymarket: market %s: decode outcome prices: %w", m.ID, err)
	}
	if len(names) != len(prices) {
		return platforms.FetchedQuestion{}, fmt.Errorf("polymarket: market %s: %d outcomes but %d prices", m.ID, len(names), len(prices))
	}

	options := make([]domain.QuestionOption, 0, len(names))
	for i, name := range names {
		p, err := strconv.ParseFloat(prices[i], 64)
		if err != nil {
			return platforms.FetchedQuestion{}, fmt.Errorf("polymarket: market %s: parse price %q: %w", m.ID, prices[i], err)
		}
		options = append(options, domain.QuestionOption{Name: name, Probability: p})
	}

	indicators := domain.QualityIndicators{}
	if v, err := strconv.ParseFloat(m.Volume, 64); err == nil {
		indicators.Volume = &v
	}
	if l, err := strconv.ParseFloat(m.Liquidity, 64); err == nil {
		indicators.Liquidity = &l
	}
	if m.Spread > 0 {
		spread := m.Spread
		indicators.Spread = &spread
	}

	return platforms.FetchedQuestion{
		ID:                fmt.Sprintf("%s-%s", Name, m.ID),
		Title:             m.Question,
		Description:       m.Description,
		URL:               "https://polymarket.com/market/" + m.Slug,
		Options:           options,
		QualityIndicators: indicators,
		Extra:             map[string]any{"endDate": m.EndDateISO},
	}, nil
}
