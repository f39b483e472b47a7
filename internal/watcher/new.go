package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/lectern/transcribe-flow/internal/logger"
)

const (
	defaultSettle = 500 * time.Millisecond
	queueSize     = 64
)

// New creates a Watcher on inputDir. A file is handed over once its size has
// stopped changing for settle.
func New(inputDir string, handler EventHandler, filter Filter, settle time.Duration, log logger.Logger) (Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(inputDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if settle <= 0 {
		settle = defaultSettle
	}

	return &implWatcher{
		inputDir: inputDir,
		handler:  handler,
		filter:   filter,
		settle:   settle,
		logger:   log,
		watcher:  watcher,
		queue:    make(chan string, queueSize),
		pending:  map[string]bool{},
	}, nil
}
