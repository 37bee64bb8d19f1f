package polymarket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forecastlab/metasync/internal/platforms"
)

func TestFlexBool(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"true"`, true},
		{`"TRUE"`, true},
		{`"false"`, false},
		{`"1"`, true},
		{`"0"`, false},
	}
	for _, tc := range cases {
		var f flexBool
		require.NoError(t, json.Unmarshal([]byte(tc.in), &f), tc.in)
		assert.Equal(t, tc.want, bool(f), tc.in)
	}

	var f flexBool
	assert.Error(t, json.Unmarshal([]byte(`42`), &f))
}

func TestToFetchedQuestion(t *testing.T) {
	m := APIMarket{
		ID:            "0xabc",
		Question:      "Will it rain tomorrow?",
		Slug:          "will-it-rain-tomorrow",
		Description:   "Resolves YES if it rains.",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.62","0.38"]`,
		Volume:        "120000.5",
		Liquidity:     "15000",
		Spread:        0.02,
		EndDateISO:    "2023-09-01",
	}

	q, err := m.ToFetchedQuestion()
	require.NoError(t, err)

	assert.Equal(t, "polymarket-0xabc", q.ID)
	assert.Equal(t, "Will it rain tomorrow?", q.Title)
	assert.Equal(t, "https://polymarket.com/market/will-it-rain-tomorrow", q.URL)

	require.Len(t, q.Options, 2)
	assert.Equal(t, "Yes", q.Options[0].Name)
	assert.Equal(t, 0.62, q.Options[0].Probability)
	assert.Equal(t, "No", q.Options[1].Name)
	assert.Equal(t, 0.38, q.Options[1].Probability)

	require.NotNil(t, q.QualityIndicators.Volume)
	assert.Equal(t, 120000.5, *q.QualityIndicators.Volume)
	require.NotNil(t, q.QualityIndicators.Liquidity)
	assert.Equal(t, 15000.0, *q.QualityIndicators.Liquidity)
	require.NotNil(t, q.QualityIndicators.Spread)
	assert.Equal(t, 0.02, *q.QualityIndicators.Spread)

	assert.Equal(t, "2023-09-01", q.Extra["endDate"])
}

func TestToFetchedQuestionMalformed(t *testing.T) {
	base := APIMarket{
		ID:            "1",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.5","0.5"]`,
	}

	badOutcomes := base
	badOutcomes.Outcomes = `not json`
	_, err := badOutcomes.ToFetchedQuestion()
	require.Error(t, err)

	badPrices := base
	badPrices.OutcomePrices = `["0.5"]`
	_, err = badPrices.ToFetchedQuestion()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 outcomes but 1 prices")

	badFloat := base
	badFloat.OutcomePrices = `["0.5","high"]`
	_, err = badFloat.ToFetchedQuestion()
	require.Error(t, err)
}

func TestToFetchedQuestionMissingMetrics(t *testing.T) {
	m := APIMarket{
		ID:            "2",
		Outcomes:      `["Yes","No"]`,
		OutcomePrices: `["0.5","0.5"]`,
	}
	q, err := m.ToFetchedQuestion()
	require.NoError(t, err)
	assert.Nil(t, q.QualityIndicators.Volume)
	assert.Nil(t, q.QualityIndicators.Liquidity)
	assert.Nil(t, q.QualityIndicators.Spread)
}

func TestCalculateStars(t *testing.T) {
	withMetrics := func(volume, liquidity float64) platforms.FetchedQuestion {
		q := platforms.FetchedQuestion{}
		q.QualityIndicators.Volume = &volume
		q.QualityIndicators.Liquidity = &liquidity
		return q
	}

	assert.Equal(t, 4, calculateStars(withMetrics(100000, 10000)))
	assert.Equal(t, 3, calculateStars(withMetrics(10000, 1000)))
	assert.Equal(t, 2, calculateStars(withMetrics(50, 100)))
	assert.Equal(t, 1, calculateStars(withMetrics(0, 0)))
	assert.Equal(t, 1, calculateStars(platforms.FetchedQuestion{}))
}
