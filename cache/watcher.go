package cache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"pos-insights/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cache entries when their source files change on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	cache   DatasetCache
	logger  *slog.Logger

	mu    sync.RWMutex
	files map[string]struct{}
}

func NewWatcher(c DatasetCache, logger *slog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		watcher: w,
		cache:   c,
		logger:  logging.For(logger, "CacheWatcher"),
		files:   make(map[string]struct{}),
	}, nil
}

// Watch registers a dataset file. The parent directory is watched so files
// replaced by rename are still seen.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(abs), err)
	}
	w.mu.Lock()
	w.files[abs] = struct{}{}
	w.mu.Unlock()
	w.logger.Info("Watching dataset file", slog.String("path", abs))
	return nil
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	w.mu.RLock()
	_, watched := w.files[abs]
	w.mu.RUnlock()
	if !watched {
		return
	}
	w.logger.Info("Dataset file changed, invalidating cache", slog.String("path", abs), slog.String("op", event.Op.String()))
	w.cache.Invalidate(abs)
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}
