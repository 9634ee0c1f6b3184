// Package watch reloads catalog files on the stack when they change on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/datacat/internal/logger"
)

// Reloader re-reads a catalog file already on the stack.
// driving.StackService satisfies it.
type Reloader interface {
	Reload(ctx context.Context, path string) error
}

// Watcher watches the directories of registered catalog files and calls
// Reload when one of them is written or recreated.
type Watcher struct {
	reloader Reloader
	watcher  *fsnotify.Watcher

	mu    sync.RWMutex
	files map[string]struct{}
	dirs  map[string]struct{}

	// OnReload, if set, is called after every reload attempt.
	OnReload func(path string, err error)
}

// New creates a watcher. Call Close when done.
func New(reloader Reloader) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		reloader: reloader,
		watcher:  fw,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
	}, nil
}

// Add starts watching path. The parent directory is watched so that
// editors that save by rename are picked up.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	dir := filepath.Dir(abs)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirs[dir]; !ok {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch directory %s: %w", dir, err)
		}
		w.dirs[dir] = struct{}{}
	}
	w.files[abs] = struct{}{}
	return nil
}

// Watching reports whether path is registered.
func (w *Watcher) Watching(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.files[abs]
	return ok
}

// Run processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.Watching(event.Name) {
				continue
			}
			logger.Debug("catalog %s changed (%s)", event.Name, event.Op)
			err := w.reloader.Reload(ctx, event.Name)
			if err != nil {
				logger.Warn("reload %s: %v", event.Name, err)
			}
			if w.OnReload != nil {
				w.OnReload(event.Name, err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
