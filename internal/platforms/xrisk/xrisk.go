// Package xrisk implements the X-risk estimates platform. The catalog is a
// curated static dataset shipped with the binary, so the fetcher (v1
// contract) never touches the network.
package xrisk

import (
	"context"
	"encoding/json"
	"fmt"

	_ "embed"

	"github.com/forecastlab/metasync/internal/domain"
	"github.com/forecastlab/metasync/internal/platforms"
)

// Name is the short platform name used in record ids.
const Name = "xrisk"

//go:embed data/questions.json
var rawDataset []byte

// datasetEntry is one curated estimate in the bundled dataset.
type datasetEntry struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	URL         string                  `json:"url"`
	Options     []domain.QuestionOption `json:"options"`
	Author      string                  `json:"author"`
}

// New declares the X-risk estimates platform.
func New() platforms.Platform {
	return platforms.NewV1Platform(
		Name,
		"X-risk estimates",
		"#272600",
		fetch,
		calculateStars,
	)
}

func fetch(_ context.Context) ([]platforms.FetchedQuestion, error) {
	var entries []datasetEntry
	if err := json.Unmarshal(rawDataset, &entries); err != nil {
		return nil, fmt.Errorf("xrisk: decode dataset: %w", err)
	}

	questions := make([]platforms.FetchedQuestion, 0, len(entries))
	for _, e := range entries {
		questions = append(questions, platforms.FetchedQuestion{
			ID:          fmt.Sprintf("%s-%s", Name, e.ID),
			Title:       e.Title,
			Description: e.Description,
			URL:         e.URL,
			Options:     e.Options,
			Extra:       map[string]any{"author": e.Author},
		})
	}
	return questions, nil
}

// calculateStars is flat: curated single-author estimates all rank the same.
func calculateStars(platforms.FetchedQuestion) int {
	return 2
}
