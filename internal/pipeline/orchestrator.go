// Package pipeline schedules platform syncs and export snapshots.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/forecastlab/metasync/internal/export"
	"github.com/forecastlab/metasync/internal/platforms"
)

// Orchestrator runs the full-sync job and the export job on cron schedules.
type Orchestrator struct {
	syncer     *platforms.Syncer
	registry   *platforms.Registry
	exporter   *export.Exporter // nil disables the export job
	syncCron   string
	exportCron string
	logger     *slog.Logger
}

// NewOrchestrator creates an Orchestrator. exportCron may be empty to disable
// the export job even when an exporter is wired.
func NewOrchestrator(
	syncer *platforms.Syncer,
	registry *platforms.Registry,
	exporter *export.Exporter,
	syncCron string,
	exportCron string,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		syncer:     syncer,
		registry:   registry,
		exporter:   exporter,
		syncCron:   syncCron,
		exportCron: exportCron,
		logger:     logger.With(slog.String("component", "pipeline")),
	}
}

// SyncAll processes every registered platform sequentially. One platform's
// failure is logged and must not block the others; the first error is
// returned after the loop for callers that want to surface it.
func (o *Orchestrator) SyncAll(ctx context.Context) error {
	var firstErr error
	for _, p := range o.registry.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.syncer.ProcessPlatform(ctx, p, nil); err != nil {
			o.logger.Error("platform sync failed",
				slog.String("platform", p.Name()),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = fmt.Errorf("pipeline: sync %s: %w", p.Name(), err)
			}
		}
	}
	return firstErr
}

// Run starts the cron loops and blocks until the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	syncSched, err := cron.ParseStandard(o.syncCron)
	if err != nil {
		return fmt.Errorf("pipeline: parse sync schedule %q: %w", o.syncCron, err)
	}

	var exportSched cron.Schedule
	if o.exporter != nil && o.exportCron != "" {
		exportSched, err = cron.ParseStandard(o.exportCron)
		if err != nil {
			return fmt.Errorf("pipeline: parse export schedule %q: %w", o.exportCron, err)
		}
	}

	o.logger.Info("pipeline starting",
		slog.String("sync_cron", o.syncCron),
		slog.String("export_cron", o.exportCron),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Sync immediately on start, then follow the schedule.
		if err := o.SyncAll(ctx); err != nil {
			o.logger.Error("sync pass finished with errors", slog.String("error", err.Error()))
		}
		return o.runOnSchedule(ctx, syncSched, "sync", func(ctx context.Context) error {
			return o.SyncAll(ctx)
		})
	})

	if exportSched != nil {
		g.Go(func() error {
			return o.runOnSchedule(ctx, exportSched, "export", o.exporter.Run)
		})
	}

	err = g.Wait()
	if ctx.Err() != nil {
		o.logger.Info("pipeline stopped")
		return ctx.Err()
	}
	return err
}

// runOnSchedule fires job at each schedule boundary until ctx is cancelled.
// Job errors are logged, not fatal: the next run retries the whole pass.
func (o *Orchestrator) runOnSchedule(ctx context.Context, sched cron.Schedule, name string, job func(context.Context) error) error {
	for {
		next := sched.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		o.logger.Info("scheduled job starting", slog.String("job", name))
		if err := job(ctx); err != nil {
			o.logger.Error("scheduled job failed",
				slog.String("job", name),
				slog.String("error", err.Error()),
			)
		}
	}
}
