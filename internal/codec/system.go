package codec

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/logger"
	"github.com/lectern/transcribe-flow/pkg/executor"
)

// SystemProvider hands out a runtime built from locally installed binaries.
// Like Loader it loads once and keeps the result; failures are not cached.
type SystemProvider struct {
	ffmpeg      string
	ffprobe     string
	scratchRoot string
	executor    executor.Executor
	logger      logger.Logger
	lookPath    func(string) (string, error)

	mu sync.Mutex
	rt Runtime
}

// NewSystemProvider creates a provider for ffmpeg/ffprobe found on PATH or at
// explicit paths.
func NewSystemProvider(exec executor.Executor, ffmpegPath, ffprobePath, scratchRoot string, log logger.Logger) *SystemProvider {
	return &SystemProvider{
		ffmpeg:      ffmpegPath,
		ffprobe:     ffprobePath,
		scratchRoot: scratchRoot,
		executor:    exec,
		logger:      log,
		lookPath:    lookPath,
	}
}

var lookPath = exec.LookPath

func (p *SystemProvider) Acquire(ctx context.Context) (Runtime, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rt != nil {
		return p.rt, nil
	}

	ffmpeg, err := p.lookPath(p.ffmpeg)
	if err != nil {
		return nil, failure.Wrap(failure.RuntimeLoadFailure, "acquire runtime", fmt.Errorf("locate %s: %w", p.ffmpeg, err))
	}
	ffprobe, err := p.lookPath(p.ffprobe)
	if err != nil {
		return nil, failure.Wrap(failure.RuntimeLoadFailure, "acquire runtime", fmt.Errorf("locate %s: %w", p.ffprobe, err))
	}

	rt, err := BinaryInit(p.executor, p.scratchRoot)(ctx, Artifacts{Executable: ffmpeg, Payload: ffprobe})
	if err != nil {
		return nil, failure.Wrap(failure.RuntimeLoadFailure, "acquire runtime", err)
	}

	p.logger.Info(ctx, "Using system codec runtime: %s, %s", ffmpeg, ffprobe)
	p.rt = rt
	return rt, nil
}
