package shotpdf

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/k1LoW/errors"
)

// Watch calls fn every time PNG files in the screenshot directory are created, written, removed or renamed.
// Bursts of events are debounced. Errors returned by fn are logged and do not stop watching.
// Watch blocks until ctx is canceled.
func (s *Screenshots) Watch(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		err = errors.WithStack(err)
	}()
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(s.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}
	s.logger.Info("waiting for changes", slog.String("dir", s.dir))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isScreenshotEvent(ev) {
				continue
			}
			s.logger.Debug("detected change", slog.String("name", ev.Name), slog.String("op", ev.Op.String()))
			// reset the quiet period on every change
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("failed to watch", slog.String("error", err.Error()))
		case <-fire:
			fire = nil
			s.logger.Info("rebuilding", slog.String("dir", s.dir))
			if err := fn(ctx); err != nil {
				s.logger.Error("failed to rebuild", slog.String("error", err.Error()))
			}
			s.logger.Info("waiting for changes", slog.String("dir", s.dir))
		}
	}
}

func isScreenshotEvent(ev fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(ev.Name), ".png") {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
