// Package export serializes the pastcast collection into JSON snapshots for
// offline backtesting tools.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/forecastlab/metasync/internal/domain"
)

// Exporter dumps every stored pastcast question to a local file and/or a blob
// store object.
type Exporter struct {
	pastcasts domain.PastcastQuestionStore
	blob      domain.BlobWriter // nil disables upload
	dir       string            // empty disables the local file
	logger    *slog.Logger
}

// NewExporter creates an Exporter. Either blob or dir may be unset; at least
// one destination should be configured for Run to do anything useful.
func NewExporter(pastcasts domain.PastcastQuestionStore, blob domain.BlobWriter, dir string, logger *slog.Logger) *Exporter {
	return &Exporter{
		pastcasts: pastcasts,
		blob:      blob,
		dir:       dir,
		logger:    logger.With(slog.String("component", "exporter")),
	}
}

// Run produces one snapshot. The local file is always named pastcasts.json
// (stable path for downstream tools); blob objects get a dated, unique key so
// snapshots accumulate.
func (e *Exporter) Run(ctx context.Context) error {
	questions, err := e.pastcasts.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("export: list pastcast questions: %w", err)
	}

	data, err := json.MarshalIndent(questions, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode snapshot: %w", err)
	}

	if e.dir != "" {
		path := filepath.Join(e.dir, "pastcasts.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("export: write %s: %w", path, err)
		}
		e.logger.Info("snapshot written",
			slog.String("path", path),
			slog.Int("questions", len(questions)),
		)
	}

	if e.blob != nil {
		key := fmt.Sprintf("exports/pastcasts-%s-%s.json",
			time.Now().UTC().Format("2006-01-02"),
			uuid.NewString(),
		)
		if err := e.blob.Put(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
			return fmt.Errorf("export: upload snapshot: %w", err)
		}
		e.logger.Info("snapshot uploaded",
			slog.String("key", key),
			slog.Int("questions", len(questions)),
		)
	}

	return nil
}
