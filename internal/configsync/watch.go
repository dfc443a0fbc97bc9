package configsync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultSettle = 250 * time.Millisecond

// Watcher reports changes to one config file. The parent directory is
// watched so that editors which replace the file on save are still seen.
type Watcher struct {
	path   string
	logger *slog.Logger
	settle time.Duration
}

func NewWatcher(path string, logger *slog.Logger) *Watcher {
	return &Watcher{path: path, logger: logger, settle: defaultSettle}
}

// Run blocks until ctx is done, calling onChange after each burst of writes
// to the file has settled.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.path, err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Debug("config file event", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				timer.Reset(w.settle)
			}
			pending = timer.C
		case <-pending:
			pending = nil
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config file watcher error", "err", err)
		}
	}
}
