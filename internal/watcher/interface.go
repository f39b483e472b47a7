package watcher

import "context"

// Watcher feeds new files in a directory to a handler, one at a time.
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler processes one file.
type EventHandler func(ctx context.Context, filePath string) error

// Filter selects which files are handed to the EventHandler.
type Filter func(path string) bool
