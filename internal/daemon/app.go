// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/vidserve/internal/catalog"
	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Reloader reloads the catalog.
type Reloader interface {
	Load(ctx context.Context, trigger catalog.Trigger) (int, error)
}

// AppOptions configures the background loops owned by App.
type AppOptions struct {
	// Catalog is reloaded on ReloadSignal. Nil disables the signal loop.
	Catalog Reloader
	// Watch runs for the lifetime of the app when set. Its failure is logged
	// and does not stop the servers.
	Watch func(ctx context.Context) error
	// ReloadSignal defaults to SIGHUP.
	ReloadSignal os.Signal
}

// App owns the long-lived runtime lifecycle (watcher, reload signal) and
// delegates server management to Manager.
type App struct {
	logger  zerolog.Logger
	manager Manager
	opts    AppOptions
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, opts AppOptions) *App {
	if opts.ReloadSignal == nil {
		opts.ReloadSignal = syscall.SIGHUP
	}
	return &App{logger: logger, manager: manager, opts: opts}
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a server fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.opts.Catalog != nil {
		g.Go(func() error {
			a.reloadOnSignal(ctx)
			return nil
		})
	}

	if a.opts.Watch != nil {
		g.Go(func() error {
			if err := a.opts.Watch(ctx); err != nil {
				a.logger.Warn().
					Err(err).
					Str(xglog.FieldEvent, "catalog.watcher_failed").
					Msg("videos directory watcher stopped, reload via signal or /reload")
			}
			return nil
		})
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}

func (a *App) reloadOnSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, a.opts.ReloadSignal)
	defer signal.Stop(sigCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			a.logger.Info().
				Str(xglog.FieldEvent, "catalog.reload_signal").
				Str("signal", a.opts.ReloadSignal.String()).
				Msg("received reload signal, reloading catalog")
			if _, err := a.opts.Catalog.Load(ctx, catalog.TriggerSignal); err != nil {
				a.logger.Warn().
					Err(err).
					Str(xglog.FieldEvent, "catalog.reload_failed").
					Msg("catalog reload failed")
			}
		}
	}
}
