package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/fsnotify/fsnotify"
)

// reloadDebounce waits after the last write before reporting a change,
// so editors that write in several steps produce one event.
const reloadDebounce = 500 * time.Millisecond

// Watcher observes the rule file for external edits. Rules are re-read
// from disk on every call, so nothing needs invalidation; the watcher
// exists to log the edit and count it.
type Watcher struct {
	watcher *fsnotify.Watcher
	path    string
	log     *slog.Logger
	edits   *metrics.Counter
}

// NewWatcher creates a watcher for the rule file at path. The parent
// directory is watched rather than the file itself: the store replaces
// the file by rename, which would drop a direct file watch.
func NewWatcher(path string, logger *slog.Logger, set *metrics.Set) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(path), err)
	}

	return &Watcher{
		watcher: watcher,
		path:    path,
		log:     logger,
		edits:   set.GetOrCreateCounter(`phrasegate_rule_file_edits_total`),
	}, nil
}

// Run watches for rule file changes. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(reloadDebounce, func() {
					w.edits.Inc()
					w.log.Info("rule file changed", "path", w.path)
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "err", err)
		}
	}
}
