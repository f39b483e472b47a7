package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/genai"

	"github.com/lectern/transcribe-flow/internal/codec"
	"github.com/lectern/transcribe-flow/internal/media"
	"github.com/lectern/transcribe-flow/internal/transcoder"
	"github.com/lectern/transcribe-flow/internal/youtube"
)

const validKey = "AIzaSyPipelineTestKey000001"

// fakeRuntime is an in-memory codec that encodes every input to output.
type fakeRuntime struct {
	mu       sync.Mutex
	files    map[string][]byte
	duration time.Duration
	output   []byte
}

func newFakeRuntime(duration time.Duration, output []byte) *fakeRuntime {
	return &fakeRuntime{files: map[string][]byte{}, duration: duration, output: output}
}

func (r *fakeRuntime) WriteFile(name string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[name] = data
	return nil
}

func (r *fakeRuntime) ReadFile(name string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, os.ErrNotExist)
	}
	return d, nil
}

func (r *fakeRuntime) DeleteFile(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, name)
	return nil
}

func (r *fakeRuntime) Exec(context.Context, ...string) error {
	return r.WriteFile(transcoder.OutputName, r.output)
}

func (r *fakeRuntime) Probe(_ context.Context, name string) (codec.StreamInfo, error) {
	if name == transcoder.OutputName {
		return codec.StreamInfo{Duration: r.duration, Channels: 1, SampleRate: transcoder.SampleRate, HasAudio: true}, nil
	}
	return codec.StreamInfo{Duration: r.duration, Channels: 2, HasAudio: true, HasVideo: true}, nil
}

func (r *fakeRuntime) scratchFiles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

type fakeProvider struct {
	rt    codec.Runtime
	err   error
	calls atomic.Int32
}

func (p *fakeProvider) Acquire(context.Context) (codec.Runtime, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.rt, nil
}

// fakeGemini answers Generate from a per-call script.
type fakeGemini struct {
	calls   atomic.Int32
	started chan struct{}
	script  func(ctx context.Context, n int) (string, error)
}

func (g *fakeGemini) Generate(ctx context.Context, _ string, _ ...*genai.Part) (string, error) {
	n := int(g.calls.Add(1))
	if g.started != nil {
		g.started <- struct{}{}
	}
	return g.script(ctx, n)
}

func answer(text string) *fakeGemini {
	return &fakeGemini{script: func(context.Context, int) (string, error) { return text, nil }}
}

type fakeNetwork struct {
	err   error
	calls atomic.Int32
}

func (n *fakeNetwork) Check(context.Context) error {
	n.calls.Add(1)
	return n.err
}

type fakeSummarizer struct {
	text  string
	err   error
	calls atomic.Int32
	got   string
}

func (s *fakeSummarizer) Summarize(_ context.Context, transcript, _ string) (string, error) {
	s.calls.Add(1)
	s.got = transcript
	return s.text, s.err
}

type fakeExtractor struct {
	audio     []byte
	err       error
	healthErr error
	extracts  atomic.Int32
	cleanedUp atomic.Int32
}

func (e *fakeExtractor) Extract(context.Context, string) (youtube.ExtractResponse, error) {
	e.extracts.Add(1)
	if e.err != nil {
		return youtube.ExtractResponse{}, e.err
	}
	return youtube.ExtractResponse{
		Success:       true,
		RequestID:     "0b0f7c2e-8a47-4a4e-9bd4-5f1c2f0d9a11",
		AudioFilename: "Lecture_One.mp3",
		Metadata:      youtube.Metadata{Title: "Lecture One"},
	}, nil
}

func (e *fakeExtractor) Download(context.Context, string, string) (media.AudioPayload, error) {
	return media.AudioPayload{Data: e.audio, MIMEType: "audio/mpeg", SourceSize: int64(len(e.audio))}, nil
}

func (e *fakeExtractor) Cleanup(context.Context, string) error {
	e.cleanedUp.Add(1)
	return nil
}

func (e *fakeExtractor) Health(context.Context) error { return e.healthErr }

// recorder collects state changes.
type recorder struct {
	mu     sync.Mutex
	states []State
	reads  int
}

func (r *recorder) StateChanged(_ string, _, to State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, to)
}

func (r *recorder) Progress(string, State, int64, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
}

func (r *recorder) seen() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}
