package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lectern/transcribe-flow/internal/logger"
)

type implWatcher struct {
	inputDir string
	handler  EventHandler
	filter   Filter
	settle   time.Duration
	logger   logger.Logger
	watcher  *fsnotify.Watcher

	queue   chan string
	mu      sync.Mutex
	pending map[string]bool
	wg      sync.WaitGroup
}

// Start queues files already in the directory, then new ones as they
// appear, and runs the handler on them sequentially until ctx is done.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started. Monitoring: %s", w.inputDir)

	w.wg.Add(1)
	go w.work(ctx)
	defer func() {
		w.logger.Info(ctx, "Waiting for ongoing processing to complete...")
		w.wg.Wait()
		w.logger.Info(ctx, "File watcher stopped")
	}()

	if err := w.scan(ctx); err != nil {
		w.logger.Warn(ctx, "Initial scan of %s failed: %v", w.inputDir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !w.accepts(event.Name) {
				w.logger.Debug(ctx, "Ignoring %s", event.Name)
				continue
			}
			w.logger.Info(ctx, "New media detected: %s", event.Name)
			w.enqueue(ctx, event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) accepts(path string) bool {
	return w.filter == nil || w.filter(path)
}

func (w *implWatcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.inputDir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if path := filepath.Join(w.inputDir, name); w.accepts(path) {
			w.enqueue(ctx, path)
		}
	}
	return nil
}

// enqueue drops paths that are already waiting.
func (w *implWatcher) enqueue(ctx context.Context, path string) {
	w.mu.Lock()
	if w.pending[path] {
		w.mu.Unlock()
		return
	}
	w.pending[path] = true
	w.mu.Unlock()

	select {
	case w.queue <- path:
	case <-ctx.Done():
	}
}

func (w *implWatcher) work(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			w.handle(ctx, path)
		}
	}
}

func (w *implWatcher) handle(ctx context.Context, path string) {
	defer func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
	}()

	if err := waitStable(ctx, path, w.settle); err != nil {
		w.logger.Warn(ctx, "Skipping %s: %v", path, err)
		return
	}
	if err := w.handler(ctx, path); err != nil {
		w.logger.Error(ctx, "Failed to process %s: %v", path, err)
	}
}

// waitStable returns once the file size is unchanged across one settle period.
// An empty file settles too; intake rejects it.
func waitStable(ctx context.Context, path string, settle time.Duration) error {
	last := int64(-1)
	for {
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if info.Size() == last {
			return nil
		}
		last = info.Size()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settle):
		}
	}
}
