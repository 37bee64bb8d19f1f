package app

import (
	"context"
	"fmt"
)

// SyncMode runs the scheduled pipeline until the context is cancelled.
func (a *App) SyncMode(ctx context.Context, deps *Dependencies) error {
	return deps.Pipeline.Run(ctx)
}

// OnceMode performs a single pass over every registered platform.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	return deps.Pipeline.SyncAll(ctx)
}

// RefreshMode syncs a single platform, optionally with fetcher arguments
// (for example a single upstream id, which the platform treats as a partial
// fetch).
func (a *App) RefreshMode(ctx context.Context, deps *Dependencies) error {
	if a.opts.Platform == "" {
		return fmt.Errorf("app: refresh mode requires a platform name")
	}
	p, err := deps.Registry.Get(a.opts.Platform)
	if err != nil {
		return err
	}
	return deps.Syncer.ProcessPlatform(ctx, p, a.opts.Args)
}

// ExportMode writes one pastcast snapshot and exits.
func (a *App) ExportMode(ctx context.Context, deps *Dependencies) error {
	return deps.Exporter.Run(ctx)
}
