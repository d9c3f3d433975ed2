package flyers

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts an fsnotify watcher on the flyer directory and keeps the
// catalog in sync until ctx is cancelled. Change bursts are debounced
// into a single rescan.
func (l *Library) Watch(ctx context.Context, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(l.root); err != nil {
		return err
	}

	logger.Info("flyer watcher: started", slog.String("root", l.root))

	// rescanTimer debounces bursts of change events.
	var rescanTimer *time.Timer
	var rescanCh <-chan time.Time

	scheduleRescan := func() {
		if rescanTimer == nil {
			rescanTimer = time.NewTimer(200 * time.Millisecond)
			rescanCh = rescanTimer.C
		} else {
			rescanTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if rescanTimer != nil {
				rescanTimer.Stop()
			}
			logger.Info("flyer watcher: stopped")
			return nil

		case <-rescanCh:
			if err := l.rescan(); err != nil {
				logger.Warn("flyer watcher: rescan failed", slog.String("error", err.Error()))
			} else {
				logger.Debug("flyer watcher: catalog refreshed", slog.Int("flyers", l.Count()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				scheduleRescan()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("flyer watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
