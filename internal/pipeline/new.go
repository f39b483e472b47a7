package pipeline

import (
	"sync"

	"github.com/lectern/transcribe-flow/internal/codec"
	"github.com/lectern/transcribe-flow/internal/export"
	"github.com/lectern/transcribe-flow/internal/logger"
	"github.com/lectern/transcribe-flow/internal/media"
	"github.com/lectern/transcribe-flow/internal/summarizer"
	"github.com/lectern/transcribe-flow/internal/transcoder"
	"github.com/lectern/transcribe-flow/internal/transcriber"
	"github.com/lectern/transcribe-flow/internal/youtube"
)

// Options carry the run-independent settings.
type Options struct {
	APIKey          string
	Limits          media.Limits
	MaxPayloadBytes int64
	AllowedHosts    []string
}

// Deps are the collaborators a Pipeline drives. Extractor, Network, Exporter
// and Observer may be nil.
type Deps struct {
	Codec       codec.Provider
	Transcoder  transcoder.Transcoder
	Transcriber transcriber.Transcriber
	Summarizer  summarizer.Summarizer
	Extractor   youtube.Client
	Network     NetworkChecker
	Exporter    export.Exporter
	Observer    Observer
}

type implPipeline struct {
	opts Options
	deps Deps

	mu     sync.Mutex
	active bool
	state  State
	runID  string
	failed error
	result *Result

	logger logger.Logger
}

// New creates a Pipeline in the idle state.
func New(opts Options, deps Deps, log logger.Logger) Pipeline {
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if len(opts.AllowedHosts) == 0 {
		opts.AllowedHosts = youtube.DefaultHosts
	}
	return &implPipeline{
		opts:   opts,
		deps:   deps,
		state:  StateIdle,
		logger: log,
	}
}
