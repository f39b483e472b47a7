package pipeline

import (
	"context"
	"errors"

	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/media"
	"github.com/lectern/transcribe-flow/internal/transcript"
)

// ErrRunInProgress is returned when a submission arrives while a run is active.
var ErrRunInProgress = errors.New("a pipeline run is already in progress")

// ErrNoTranscript is returned by Summarize before any run has completed.
var ErrNoTranscript = errors.New("no completed transcript to summarize")

// Pipeline sequences intake, audio preparation, transcription and summary.
// At most one run is active at a time.
type Pipeline interface {
	RunFile(ctx context.Context, in media.Input) (Result, error)
	RunURL(ctx context.Context, videoURL string) (Result, error)
	Summarize(ctx context.Context) (string, error)
	Status() Status
}

// Result is the outcome of a completed run.
type Result struct {
	RunID      string
	Title      string
	Segments   []transcript.Segment
	Transcript string
	Summary    string
	Artifacts  []string
}

// Status is a snapshot of the state machine. Failure is set in StateFailed.
type Status struct {
	State   State
	RunID   string
	Failure failure.Category
}

// Observer receives state changes and progress. Calls arrive on the run's
// goroutine and must not block.
type Observer interface {
	StateChanged(runID string, from, to State)
	Progress(runID string, stage State, done, total int64)
}

// NetworkChecker verifies the provider is reachable before a run starts.
type NetworkChecker interface {
	Check(ctx context.Context) error
}

type nopObserver struct{}

func (nopObserver) StateChanged(string, State, State) {}
func (nopObserver) Progress(string, State, int64, int64) {}
