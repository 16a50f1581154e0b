// Package watcher reloads the store when the data document is modified
// outside the process (editor, sync client).
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/studyflow/internal/store"
)

// ReloadCallback is called after the store picked up an external change.
type ReloadCallback func()

// Watch observes the directory containing the data document at dataPath
// and reloads st whenever the document's content actually changes, until
// ctx is cancelled. Events are debounced because editors and the store's
// own atomic rename produce bursts; the store compares checksums, so
// self-inflicted writes are recognized as no-ops.
func Watch(ctx context.Context, st *store.Store, dataPath string, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(dataPath)
	if err != nil {
		return err
	}
	// Watch the parent: atomic replaces (rename over the file) would
	// silently detach a watch on the file itself.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			changed, reloadErr := st.Reload()
			if reloadErr != nil {
				logger.Warn("watcher: reload failed", slog.String("error", reloadErr.Error()))
				continue
			}
			if !changed {
				continue
			}
			logger.Info("watcher: state reloaded from disk")
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
