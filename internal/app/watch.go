package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDirectiveFile watches the directive file and calls revalidate after
// a quiet period. It watches the parent directory so atomic renames from
// editors are seen.
func watchDirectiveFile(ctx context.Context, path string, logger *slog.Logger, revalidate func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if revalidate == nil {
		return
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("watch_disabled", slog.Any("err", err))
		return
	}
	defer w.Close()

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := w.Add(dir); err != nil {
		logger.Warn("watch_disabled", slog.Any("err", err))
		return
	}

	logger.Info("watching_directives", slog.String("path", path))

	// Debounce to coalesce bursty editor/atomic-write events.
	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(200 * time.Millisecond)
		} else {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(200 * time.Millisecond)
		}
		timerCh = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != base {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			schedule()
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("watch_error", slog.Any("err", err))
		case <-timerCh:
			timerCh = nil
			revalidate()
		}
	}
}
