package codec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/logger"
)

// mirror is an httptest server serving the probe resource and both artifacts.
type mirror struct {
	*httptest.Server
	hits      atomic.Int32
	probeCode atomic.Int32
	missing   string
}

func newMirror(t *testing.T, probeCode int, missing ...string) *mirror {
	t.Helper()
	m := &mirror{}
	if len(missing) > 0 {
		m.missing = missing[0]
	}
	m.probeCode.Store(int32(probeCode))
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.hits.Add(1)
		switch r.URL.Path {
		case "/" + m.missing:
			http.NotFound(w, r)
		case "/manifest.json":
			w.WriteHeader(int(m.probeCode.Load()))
			w.Write([]byte(`{"version":"7.1"}`))
		case "/ffmpeg", "/ffprobe":
			w.Write([]byte("#!/bin/sh\necho " + r.URL.Path + "\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(m.Close)
	return m
}

func testOptions(t *testing.T, init InitFunc, mirrors ...*mirror) LoaderOptions {
	urls := make([]string, len(mirrors))
	for i, m := range mirrors {
		urls[i] = m.URL
	}
	return LoaderOptions{
		Mirrors:       urls,
		ProbeResource: "manifest.json",
		Executable:    "ffmpeg",
		Payload:       "ffprobe",
		ProbeTimeout:  time.Second,
		InitTimeout:   time.Second,
		LoadTimeout:   5 * time.Second,
		CacheDir:      t.TempDir(),
		Init:          init,
	}
}

func okInit(calls *atomic.Int32) InitFunc {
	return func(ctx context.Context, a Artifacts) (Runtime, error) {
		calls.Add(1)
		for _, p := range []string{a.Executable, a.Payload} {
			if _, err := os.Stat(p); err != nil {
				return nil, err
			}
		}
		return newFakeRuntime(), nil
	}
}

func TestAcquireFirstMirrorShortCircuits(t *testing.T) {
	first := newMirror(t, http.StatusOK)
	second := newMirror(t, http.StatusOK)
	var inits atomic.Int32

	l := NewLoader(testOptions(t, okInit(&inits), first, second), nil, logger.Nop())
	rt, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if rt == nil {
		t.Fatal("Acquire() returned nil runtime")
	}
	if !l.isLoaded() {
		t.Error("isLoaded() = false after success")
	}
	if got := first.hits.Load(); got != 3 {
		t.Errorf("first mirror hits = %d, want 3 (probe + 2 artifacts)", got)
	}
	if got := second.hits.Load(); got != 0 {
		t.Errorf("second mirror hits = %d, want 0", got)
	}
}

func TestAcquireIsIdempotent(t *testing.T) {
	first := newMirror(t, http.StatusOK)
	var inits atomic.Int32

	l := NewLoader(testOptions(t, okInit(&inits), first, newMirror(t, http.StatusOK)), nil, logger.Nop())
	rt1, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	rt2, err := l.Acquire(context.Background())
	if err != nil {
		t.Fatalf("second Acquire() error = %v", err)
	}
	if rt1 != rt2 {
		t.Error("second Acquire() returned a different runtime")
	}
	if got := inits.Load(); got != 1 {
		t.Errorf("init calls = %d, want 1", got)
	}
	if got := first.hits.Load(); got != 3 {
		t.Errorf("first mirror hits = %d, want 3", got)
	}
}

func TestAcquireFallsBackOnProbeFailure(t *testing.T) {
	first := newMirror(t, http.StatusServiceUnavailable)
	second := newMirror(t, http.StatusOK)
	var inits atomic.Int32

	l := NewLoader(testOptions(t, okInit(&inits), first, second), nil, logger.Nop())
	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := first.hits.Load(); got != 1 {
		t.Errorf("first mirror hits = %d, want 1 (probe only)", got)
	}
	if got := second.hits.Load(); got != 3 {
		t.Errorf("second mirror hits = %d, want 3", got)
	}
}

func TestAcquireFallsBackOnMissingArtifact(t *testing.T) {
	first := newMirror(t, http.StatusOK, "ffprobe")
	second := newMirror(t, http.StatusOK)
	var inits atomic.Int32

	l := NewLoader(testOptions(t, okInit(&inits), first, second), nil, logger.Nop())
	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := inits.Load(); got != 1 {
		t.Errorf("init calls = %d, want 1 (only the second mirror)", got)
	}
}

func TestAcquireFallsBackOnInitTimeout(t *testing.T) {
	first := newMirror(t, http.StatusOK)
	second := newMirror(t, http.StatusOK)

	block := make(chan struct{})
	defer close(block)
	var calls atomic.Int32
	init := func(ctx context.Context, a Artifacts) (Runtime, error) {
		if calls.Add(1) == 1 {
			<-block // never settles for the first mirror
		}
		return newFakeRuntime(), nil
	}

	opts := testOptions(t, init, first, second)
	opts.InitTimeout = 30 * time.Millisecond
	l := NewLoader(opts, nil, logger.Nop())

	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if got := second.hits.Load(); got != 3 {
		t.Errorf("second mirror hits = %d, want 3", got)
	}
}

func TestAcquireAllMirrorsFail(t *testing.T) {
	first := newMirror(t, http.StatusNotFound)
	second := newMirror(t, http.StatusInternalServerError)
	var inits atomic.Int32

	l := NewLoader(testOptions(t, okInit(&inits), first, second), nil, logger.Nop())
	_, err := l.Acquire(context.Background())
	if err == nil {
		t.Fatal("Acquire() should fail when every mirror fails")
	}
	if !failure.Is(err, failure.RuntimeLoadFailure) {
		t.Fatalf("category = %v, want %v", failure.CategoryOf(err), failure.RuntimeLoadFailure)
	}

	var lf *LoadFailure
	if !errors.As(err, &lf) {
		t.Fatalf("error %T does not carry *LoadFailure", err)
	}
	if lf.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", lf.Attempts)
	}
	if !lf.Online {
		t.Error("Online = false, but mirrors answered over HTTP")
	}
	if lf.Platform == "" || lf.Connection == "" {
		t.Errorf("environment hints missing: %+v", lf)
	}
	if l.isLoaded() {
		t.Error("isLoaded() = true after total failure")
	}

	// a later call starts again from the first mirror
	first.probeCode.Store(http.StatusOK)
	if _, err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("retry Acquire() error = %v", err)
	}
	if got := first.hits.Load(); got != 4 {
		t.Errorf("first mirror hits = %d, want 4 (1 failed probe + 3)", got)
	}
	if got := second.hits.Load(); got != 1 {
		t.Errorf("second mirror hits = %d, want 1 (only the failed round)", got)
	}
}

func TestAcquireUnreachableMirrorsReportOffline(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	opts := LoaderOptions{
		Mirrors:       []string{url, url},
		ProbeResource: "manifest.json",
		Executable:    "ffmpeg",
		Payload:       "ffprobe",
		ProbeTimeout:  time.Second,
		CacheDir:      t.TempDir(),
		Init:          okInit(new(atomic.Int32)),
	}
	_, err := NewLoader(opts, nil, logger.Nop()).Acquire(context.Background())

	var lf *LoadFailure
	if !errors.As(err, &lf) {
		t.Fatalf("error = %v, want *LoadFailure", err)
	}
	if lf.Online {
		t.Error("Online = true, but no mirror answered")
	}
}

func TestAcquireNoMirrors(t *testing.T) {
	_, err := NewLoader(LoaderOptions{}, nil, logger.Nop()).Acquire(context.Background())
	if !failure.Is(err, failure.RuntimeLoadFailure) {
		t.Errorf("Acquire() error = %v, want RuntimeLoadFailure", err)
	}
}

func TestBinaryInitVerifiesBothArtifacts(t *testing.T) {
	exec := &fakeExecutor{}
	rt, err := BinaryInit(exec, t.TempDir())(context.Background(), Artifacts{Executable: "/c/ffmpeg", Payload: "/c/ffprobe"})
	if err != nil {
		t.Fatalf("BinaryInit() error = %v", err)
	}
	if rt == nil {
		t.Fatal("BinaryInit() returned nil runtime")
	}
	if len(exec.calls) != 2 || exec.calls[0].Name != "/c/ffmpeg" || exec.calls[1].Name != "/c/ffprobe" {
		t.Errorf("calls = %+v", exec.calls)
	}

	failing := &fakeExecutor{run: func(dir, name string, args []string) (string, error) {
		return "", errors.New("exec format error")
	}}
	if _, err := BinaryInit(failing, t.TempDir())(context.Background(), Artifacts{Executable: "x", Payload: "y"}); err == nil {
		t.Error("BinaryInit() should fail when the executable does not run")
	}
}
