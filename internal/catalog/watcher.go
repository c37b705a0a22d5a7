// SPDX-License-Identifier: MIT

package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	xglog "github.com/ManuGH/vidserve/internal/log"
	"github.com/fsnotify/fsnotify"
)

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Watch reloads the store whenever video files in its directory are created,
// removed, renamed or written. Bursts of events (a large copy emits many
// writes) are coalesced: the reload runs once the directory has been quiet
// for debounce. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, s *Store, debounce time.Duration) error {
	logger := xglog.WithContext(ctx, s.logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify.NewWatcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := s.VideosDir()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dir, err)
	}

	logger.Info().
		Str(xglog.FieldEvent, "catalog.watcher_started").
		Str(xglog.FieldVideosDir, dir).
		Dur("debounce", debounce).
		Msg("watching videos directory")

	if debounce <= 0 {
		debounce = time.Second
	}
	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Str(xglog.FieldEvent, "catalog.watcher_stopped").Msg("videos directory watcher stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher channel closed")
			}
			if event.Op&relevantOps == 0 || !IsVideoFile(filepath.Base(event.Name)) {
				continue
			}
			logger.Debug().
				Str(xglog.FieldPath, event.Name).
				Str("op", event.Op.String()).
				Msg("videos directory changed")
			timer.Reset(debounce)
		case <-timer.C:
			if _, err := s.Load(ctx, TriggerWatch); err != nil {
				logger.Warn().Err(err).Str(xglog.FieldEvent, "catalog.watch_reload_failed").Msg("reload after directory change failed")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			logger.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}
