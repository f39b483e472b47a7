package codec

import (
	"context"
	"time"
)

// Runtime is a loaded media codec with its own scratch filesystem. Scratch
// files are shared state: callers must not run two jobs against one Runtime
// at the same time.
type Runtime interface {
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	DeleteFile(name string) error
	Exec(ctx context.Context, args ...string) error
	Probe(ctx context.Context, name string) (StreamInfo, error)
}

// Provider hands out a loaded Runtime, loading it on first use.
type Provider interface {
	Acquire(ctx context.Context) (Runtime, error)
}

// StreamInfo is what Probe learns about a scratch file.
type StreamInfo struct {
	Duration   time.Duration
	Channels   int
	SampleRate int
	HasVideo   bool
	HasAudio   bool
}
