package codec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/logger"
	"github.com/lectern/transcribe-flow/pkg/deadline"
	"github.com/lectern/transcribe-flow/pkg/executor"
)

// Artifacts are the local copies of one mirror's runtime files.
type Artifacts struct {
	Executable string
	Payload    string
}

// InitFunc turns fetched artifacts into a usable Runtime.
type InitFunc func(ctx context.Context, a Artifacts) (Runtime, error)

// LoaderOptions configures mirror fallback and bounds.
type LoaderOptions struct {
	Mirrors       []string
	ProbeResource string
	Executable    string
	Payload       string
	ProbeTimeout  time.Duration
	InitTimeout   time.Duration
	LoadTimeout   time.Duration
	// CacheDir holds one directory per load attempt.
	CacheDir   string
	HTTPClient *http.Client
	Init       InitFunc
}

// LoadFailure describes why no mirror produced a runtime. The environment
// fields only feed user guidance.
type LoadFailure struct {
	LastErr    error
	Attempts   int
	Online     bool
	Connection string
	Platform   string
}

func (e *LoadFailure) Error() string {
	return fmt.Sprintf("all %d codec mirrors failed (online=%t, connection=%s, platform=%s): %v",
		e.Attempts, e.Online, e.Connection, e.Platform, e.LastErr)
}

func (e *LoadFailure) Unwrap() error { return e.LastErr }

// Loader acquires the codec runtime from the first working mirror and keeps
// it for the rest of the process. A failed load leaves nothing behind, so the
// next Acquire starts again from the first mirror.
type Loader struct {
	opts   LoaderOptions
	logger logger.Logger

	mu     sync.Mutex
	rt     Runtime
	loaded bool
}

// NewLoader creates a Loader. A nil opts.Init verifies and wraps the fetched
// binaries with exec.
func NewLoader(opts LoaderOptions, exec executor.Executor, log logger.Logger) *Loader {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Init == nil {
		opts.Init = BinaryInit(exec, opts.CacheDir)
	}
	return &Loader{opts: opts, logger: log}
}

// isLoaded reports whether a runtime has been acquired.
func (l *Loader) isLoaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Acquire returns the loaded runtime, loading it first if needed. Mirrors are
// tried strictly in order.
func (l *Loader) Acquire(ctx context.Context) (Runtime, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return l.rt, nil
	}

	if l.opts.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.LoadTimeout)
		defer cancel()
	}

	var lastErr error
	online := false
	attempts := 0
	for i, base := range l.opts.Mirrors {
		if ctx.Err() != nil {
			break
		}
		attempts++
		l.logger.Info(ctx, "Loading codec runtime from mirror %d/%d: %s", i+1, len(l.opts.Mirrors), base)

		rt, reached, err := l.tryMirror(ctx, base)
		online = online || reached
		if err == nil {
			l.rt = rt
			l.loaded = true
			l.logger.Info(ctx, "Codec runtime loaded from %s", base)
			return rt, nil
		}

		lastErr = err
		l.logger.Warn(ctx, "Codec mirror %s failed: %v", base, err)
	}

	if lastErr == nil {
		lastErr = ctx.Err()
	}
	if lastErr == nil {
		lastErr = errors.New("no codec mirrors configured")
	}

	return nil, failure.Wrap(failure.RuntimeLoadFailure, "acquire runtime", &LoadFailure{
		LastErr:    lastErr,
		Attempts:   attempts,
		Online:     online,
		Connection: connectionHint(l.opts.Mirrors),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	})
}

// tryMirror runs probe, fetch and init against one mirror. reached reports
// whether the mirror answered at the HTTP level.
func (l *Loader) tryMirror(ctx context.Context, base string) (Runtime, bool, error) {
	if err := l.probe(ctx, base); err != nil {
		var se *statusError
		return nil, errors.As(err, &se), fmt.Errorf("probe: %w", err)
	}

	exe, err := l.fetch(ctx, base, l.opts.Executable)
	if err != nil {
		return nil, true, fmt.Errorf("fetch executable: %w", err)
	}
	payload, err := l.fetch(ctx, base, l.opts.Payload)
	if err != nil {
		return nil, true, fmt.Errorf("fetch payload: %w", err)
	}

	if l.opts.CacheDir != "" {
		if err := os.MkdirAll(l.opts.CacheDir, 0755); err != nil {
			return nil, true, fmt.Errorf("create cache dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(l.opts.CacheDir, "codec-runtime-*")
	if err != nil {
		return nil, true, fmt.Errorf("create artifact dir: %w", err)
	}

	artifacts := Artifacts{
		Executable: filepath.Join(dir, filepath.Base(l.opts.Executable)),
		Payload:    filepath.Join(dir, filepath.Base(l.opts.Payload)),
	}
	if err := writeArtifact(artifacts.Executable, exe); err != nil {
		os.RemoveAll(dir)
		return nil, true, err
	}
	if err := writeArtifact(artifacts.Payload, payload); err != nil {
		os.RemoveAll(dir)
		return nil, true, err
	}

	rt, err := deadline.Run(ctx, l.opts.InitTimeout, func(ctx context.Context) (Runtime, error) {
		return l.opts.Init(ctx, artifacts)
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, true, fmt.Errorf("init runtime: %w", err)
	}
	return rt, true, nil
}

type statusError struct {
	url  string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.url, e.code)
}

func (l *Loader) probe(ctx context.Context, base string) error {
	_, err := deadline.Run(ctx, l.opts.ProbeTimeout, func(ctx context.Context) (struct{}, error) {
		u, err := url.JoinPath(base, l.opts.ProbeResource)
		if err != nil {
			return struct{}{}, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return struct{}{}, err
		}
		resp, err := l.opts.HTTPClient.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return struct{}{}, &statusError{url: u, code: resp.StatusCode}
		}
		return struct{}{}, nil
	})
	return err
}

func (l *Loader) fetch(ctx context.Context, base, name string) ([]byte, error) {
	u, err := url.JoinPath(base, name)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{url: u, code: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("GET %s: empty body", u)
	}
	return data, nil
}

func writeArtifact(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0755); err != nil {
		return fmt.Errorf("write artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}

// connectionHint reports whether traffic to the first mirror goes through a proxy.
func connectionHint(mirrors []string) string {
	if len(mirrors) == 0 {
		return "unknown"
	}
	req, err := http.NewRequest(http.MethodGet, mirrors[0], nil)
	if err != nil {
		return "unknown"
	}
	proxy, err := http.ProxyFromEnvironment(req)
	if err != nil {
		return "unknown"
	}
	if proxy != nil {
		return "proxy"
	}
	return "direct"
}

// BinaryInit checks that both artifacts run and wraps them as a process
// runtime whose scratch dir lives under scratchRoot.
func BinaryInit(exec executor.Executor, scratchRoot string) InitFunc {
	return func(ctx context.Context, a Artifacts) (Runtime, error) {
		if _, err := exec.Execute(ctx, a.Executable, "-version"); err != nil {
			return nil, fmt.Errorf("verify executable: %w", err)
		}
		if _, err := exec.Execute(ctx, a.Payload, "-version"); err != nil {
			return nil, fmt.Errorf("verify payload: %w", err)
		}
		return NewProcessRuntime(exec, a.Executable, a.Payload, scratchRoot)
	}
}
