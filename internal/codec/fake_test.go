package codec

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/lectern/transcribe-flow/internal/logger"
)

func nopLogger() logger.Logger { return logger.Nop() }

// fakeRuntime is an in-memory Runtime.
type fakeRuntime struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{files: map[string][]byte{}}
}

func (f *fakeRuntime) WriteFile(name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = data
	return nil
}

func (f *fakeRuntime) ReadFile(name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return d, nil
}

func (f *fakeRuntime) DeleteFile(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, name)
	return nil
}

func (f *fakeRuntime) Exec(ctx context.Context, args ...string) error { return nil }

func (f *fakeRuntime) Probe(ctx context.Context, name string) (StreamInfo, error) {
	return StreamInfo{}, nil
}

// fakeExecutor records calls and answers from a callback.
type fakeExecutor struct {
	mu    sync.Mutex
	calls []fakeCall
	run   func(dir, name string, args []string) (string, error)
}

type fakeCall struct {
	Dir  string
	Name string
	Args []string
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return f.ExecuteInDir(ctx, "", name, args...)
}

func (f *fakeExecutor) ExecuteInDir(ctx context.Context, dir string, name string, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Dir: dir, Name: name, Args: append([]string{}, args...)})
	f.mu.Unlock()
	if f.run == nil {
		return "", nil
	}
	return f.run(dir, name, args)
}
