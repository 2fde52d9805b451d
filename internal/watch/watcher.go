// Package watch re-runs a parse when watched files change.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config contains watcher configuration.
type Config struct {
	Files    []string      // files to watch (script and grammar)
	Debounce time.Duration // default 500ms
	OnChange func(path string)
}

// Watcher watches a set of files and invokes OnChange after changes
// settle. Editors often replace files instead of writing in place, so
// the parent directories are watched and events are filtered by path.
type Watcher struct {
	files    map[string]bool
	debounce time.Duration
	onChange func(string)

	watcher *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]time.Time
}

// New creates a new file watcher. Paths are resolved before the
// fsnotify watcher is created so a resolution failure leaks nothing.
func New(cfg Config) (*Watcher, error) {
	files := make(map[string]bool, len(cfg.Files))
	for _, f := range cfg.Files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		files[abs] = true
	}

	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = 500 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		files:    files,
		debounce: debounce,
		onChange: cfg.OnChange,
		watcher:  watcher,
		pending:  make(map[string]time.Time),
	}, nil
}

// Watch starts watching for file changes.
// It blocks until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			w.watcher.Close()
			return err
		}
	}

	slog.Info("watching for file changes", "files", len(w.files))

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping watcher")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil || !w.files[abs] {
		return
	}
	slog.Debug("file changed", "path", abs, "op", event.Op)

	w.pendingMu.Lock()
	w.pending[abs] = time.Now()
	w.pendingMu.Unlock()
}

// processDebounced fires OnChange for files whose last event is older
// than the debounce interval.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var ready []string
			now := time.Now()

			w.pendingMu.Lock()
			for path, last := range w.pending {
				if now.Sub(last) >= w.debounce {
					ready = append(ready, path)
					delete(w.pending, path)
				}
			}
			w.pendingMu.Unlock()

			for _, path := range ready {
				w.onChange(path)
			}
		}
	}
}
