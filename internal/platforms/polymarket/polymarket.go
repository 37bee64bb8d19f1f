// Package polymarket implements the Polymarket live-question platform over
// the Gamma REST API (v2 fetcher contract).
package polymarket

import (
	"context"
	"log/slog"

	"github.com/forecastlab/metasync/internal/domain"
	"github.com/forecastlab/metasync/internal/platforms"
)

// Name is the short platform name used in record ids.
const Name = "polymarket"

// DefaultBaseURL is the production Gamma API root.
const DefaultBaseURL = "https://gamma-api.polymarket.com"

const pageSize = 100

// New declares the Polymarket platform. Passing args={"id": "<market id>"}
// refreshes a single market as a partial fetch.
func New(baseURL string, throttle domain.Throttle, logger *slog.Logger) platforms.Platform {
	client := NewClient(baseURL)
	log := logger.With(slog.String("platform", Name))
	return platforms.NewV2Platform(
		Name,
		"Polymarket",
		"#00314e",
		[]string{"id"},
		func(ctx context.Context, args map[string]string) (*platforms.FetchResult, error) {
			return fetch(ctx, client, throttle, log, args)
		},
		calculateStars,
	)
}

func fetch(ctx context.Context, client *Client, throttle domain.Throttle, logger *slog.Logger, args map[string]string) (*platforms.FetchResult, error) {
	if id := args["id"]; id != "" {
		if err := throttle.Wait(ctx); err != nil {
			return nil, err
		}
		market, err := client.GetMarket(ctx, id)
		if err != nil {
			return nil, err
		}
		q, err := market.ToFetchedQuestion()
		if err != nil {
			return nil, err
		}
		return &platforms.FetchResult{
			Questions: []platforms.FetchedQuestion{q},
			Partial:   true,
		}, nil
	}

	var questions []platforms.FetchedQuestion
	offset := 0
	for {
		if err := throttle.Wait(ctx); err != nil {
			return nil, err
		}
		markets, err := client.GetMarkets(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}
		if len(markets) == 0 {
			break
		}

		for i := range markets {
			q, err := markets[i].ToFetchedQuestion()
			if err != nil {
				// Malformed market; skip it rather than failing the batch.
				logger.Warn("skipping market", slog.String("error", err.Error()))
				continue
			}
			questions = append(questions, q)
		}

		if len(markets) < pageSize {
			break
		}
		offset += pageSize
	}

	return &platforms.FetchResult{Questions: questions, Partial: false}, nil
}

// calculateStars scores a market by how much money backs its prices.
func calculateStars(q platforms.FetchedQuestion) int {
	volume := 0.0
	if q.QualityIndicators.Volume != nil {
		volume = *q.QualityIndicators.Volume
	}
	liquidity := 0.0
	if q.QualityIndicators.Liquidity != nil {
		liquidity = *q.QualityIndicators.Liquidity
	}

	switch {
	case liquidity >= 10000 && volume >= 100000:
		return 4
	case liquidity >= 1000 && volume >= 10000:
		return 3
	case liquidity >= 100:
		return 2
	default:
		return 1
	}
}
