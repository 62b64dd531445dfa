package roster

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the registry when the roster file changes on disk.
// Editors tend to fire several events per save, so reloads are debounced.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	registry *Registry
	logger   *zap.Logger
	debounce time.Duration
	lastSeen time.Time
	doneCh   chan struct{}
	running  bool
}

// NewWatcher creates a watcher for the registry's roster file.
func NewWatcher(registry *Registry, logger *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		registry: registry,
		logger:   logger,
		debounce: 500 * time.Millisecond,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the watcher stops when ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	// Watch the directory, not the file: saves that rename-over the roster
	// replace the inode and a file watch would go stale.
	dir := filepath.Dir(w.registry.path)
	if err := w.watcher.Add(dir); err != nil {
		return err
	}
	w.logger.Info("watching roster", zap.String("path", w.registry.path))

	// Marked running only once the event loop exists, so a Close after a
	// failed Start never waits on a goroutine that was never launched.
	w.running = true
	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	target := filepath.Clean(w.registry.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.mu.Lock()
			if time.Since(w.lastSeen) < w.debounce {
				w.mu.Unlock()
				continue
			}
			w.lastSeen = time.Now()
			w.mu.Unlock()

			if err := w.registry.Reload(); err != nil {
				// Keep serving the previous snapshot on a bad edit.
				w.logger.Warn("roster reload failed", zap.Error(err))
				continue
			}
			w.logger.Info("roster reloaded",
				zap.String("version", w.registry.Version()),
				zap.Int("active", len(w.registry.Active())))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("roster watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if running {
		<-w.doneCh
	}
	return err
}
