package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lectern/transcribe-flow/internal/failure"
	"github.com/lectern/transcribe-flow/internal/media"
	"github.com/lectern/transcribe-flow/internal/transcriber"
	"github.com/lectern/transcribe-flow/internal/transcript"
	"github.com/lectern/transcribe-flow/internal/youtube"
)

// RunFile transcribes a local video or audio input.
func (p *implPipeline) RunFile(ctx context.Context, in media.Input) (Result, error) {
	runID, err := p.begin()
	if err != nil {
		return Result{}, err
	}
	defer p.end()

	p.logger.Info(ctx, "[%s] Run started for %s (%s, %s)", runID, in.Name, in.MIMEType, media.HumanSize(in.Size))

	if err := transcriber.CheckKey(p.opts.APIKey); err != nil {
		return Result{}, p.fail(ctx, err)
	}
	if err := p.opts.Limits.Check(in); err != nil {
		return Result{}, p.fail(ctx, err)
	}
	if in.Kind() == media.KindAudio && p.opts.MaxPayloadBytes > 0 && in.Size > p.opts.MaxPayloadBytes {
		return Result{}, p.fail(ctx, p.tooLarge(in.Size))
	}

	if err := p.checkNetwork(ctx); err != nil {
		return Result{}, p.fail(ctx, err)
	}

	var payload media.AudioPayload
	switch in.Kind() {
	case media.KindVideo:
		p.transition(ctx, StateLoadingRuntime)
		rt, err := p.deps.Codec.Acquire(ctx)
		if err != nil {
			return Result{}, p.fail(ctx, err)
		}

		p.transition(ctx, StateTranscoding)
		payload, err = p.deps.Transcoder.Transcode(ctx, rt, in, p.progress(runID, StateTranscoding))
		if err != nil {
			return Result{}, p.fail(ctx, err)
		}

	default:
		p.transition(ctx, StateTranscribing)
		data, err := media.ReadAll(ctx, in, p.progress(runID, StateTranscribing))
		if err != nil {
			return Result{}, p.fail(ctx, failure.Wrap(failure.InputRejected, "read input", err))
		}
		payload = media.AudioPayload{Data: data, MIMEType: in.MIMEType, SourceSize: in.Size}
	}

	return p.transcribe(ctx, runID, titleFromName(in.Name), payload)
}

// RunURL asks the extraction backend for a video's audio and transcribes it.
func (p *implPipeline) RunURL(ctx context.Context, videoURL string) (Result, error) {
	runID, err := p.begin()
	if err != nil {
		return Result{}, err
	}
	defer p.end()

	p.logger.Info(ctx, "[%s] Run started for %s", runID, videoURL)

	if err := transcriber.CheckKey(p.opts.APIKey); err != nil {
		return Result{}, p.fail(ctx, err)
	}
	if err := youtube.ValidateURL(videoURL, p.opts.AllowedHosts); err != nil {
		return Result{}, p.fail(ctx, err)
	}
	if p.deps.Extractor == nil {
		return Result{}, p.fail(ctx, failure.New(failure.ConfigError, "extract", "no extraction backend is configured"))
	}

	if err := p.checkNetwork(ctx); err != nil {
		return Result{}, p.fail(ctx, err)
	}
	if err := p.deps.Extractor.Health(ctx); err != nil {
		return Result{}, p.fail(ctx, err)
	}

	p.transition(ctx, StateExtracting)
	ex, err := p.deps.Extractor.Extract(ctx, videoURL)
	if err != nil {
		return Result{}, p.fail(ctx, err)
	}
	defer p.cleanupExtraction(ctx, ex.RequestID)

	payload, err := p.deps.Extractor.Download(ctx, ex.RequestID, ex.AudioFilename)
	if err != nil {
		return Result{}, p.fail(ctx, err)
	}

	title := ex.Metadata.Title
	if title == "" {
		title = titleFromName(ex.AudioFilename)
	}
	return p.transcribe(ctx, runID, title, payload)
}

// transcribe owns payload from here on and drops it once the provider
// call has returned.
func (p *implPipeline) transcribe(ctx context.Context, runID, title string, payload media.AudioPayload) (Result, error) {
	if p.opts.MaxPayloadBytes > 0 && payload.Size() > p.opts.MaxPayloadBytes {
		return Result{}, p.fail(ctx, p.tooLarge(payload.Size()))
	}

	p.transition(ctx, StateTranscribing)
	start := time.Now()
	raw, err := p.deps.Transcriber.Transcribe(ctx, payload, p.opts.APIKey)
	payload = media.AudioPayload{}
	if err != nil {
		return Result{}, p.fail(ctx, err)
	}

	segs := transcript.Format(raw)
	res := Result{
		RunID:      runID,
		Title:      title,
		Segments:   segs,
		Transcript: transcript.Render(segs),
	}
	p.logger.Info(ctx, "[%s] Transcript has %d segments (%s)", runID, len(segs), time.Since(start).Round(time.Millisecond))

	if p.deps.Exporter != nil {
		paths, err := p.deps.Exporter.WriteTranscript(ctx, title, segs)
		if err != nil {
			return Result{}, p.fail(ctx, err)
		}
		res.Artifacts = paths
	}

	p.mu.Lock()
	p.result = &res
	p.mu.Unlock()
	p.transition(ctx, StateDone)
	return res, nil
}

// Summarize condenses the last completed transcript. A failed summary leaves
// the transcript in place and the machine in StateDone.
func (p *implPipeline) Summarize(ctx context.Context) (string, error) {
	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return "", ErrRunInProgress
	}
	if p.state != StateDone || p.result == nil {
		p.mu.Unlock()
		return "", ErrNoTranscript
	}
	p.active = true
	res := *p.result
	p.mu.Unlock()
	defer p.end()

	p.transition(ctx, StateSummarizing)
	summary, err := p.deps.Summarizer.Summarize(ctx, transcript.Text(res.Segments), p.opts.APIKey)
	p.transition(ctx, StateDone)
	if err != nil {
		cat := failure.CategoryOf(err)
		p.logger.Error(ctx, "[%s] Summary failed (%s): %v", res.RunID, cat, err)
		return "", err
	}

	var paths []string
	if p.deps.Exporter != nil {
		paths, err = p.deps.Exporter.WriteSummary(ctx, res.Title, summary)
		if err != nil {
			return summary, err
		}
	}

	p.mu.Lock()
	if p.result != nil && p.result.RunID == res.RunID {
		p.result.Summary = summary
		p.result.Artifacts = append(p.result.Artifacts, paths...)
	}
	p.mu.Unlock()
	return summary, nil
}

func (p *implPipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{State: p.state, RunID: p.runID}
	if p.state == StateFailed {
		st.Failure = failure.CategoryOf(p.failed)
	}
	return st
}

// begin claims the single run slot; a new submission supersedes any earlier
// result.
func (p *implPipeline) begin() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active {
		return "", ErrRunInProgress
	}
	p.active = true
	p.runID = uuid.NewString()
	p.result = nil
	p.failed = nil
	return p.runID, nil
}

func (p *implPipeline) end() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
}

func (p *implPipeline) transition(ctx context.Context, to State) {
	p.mu.Lock()
	from := p.state
	if from == to {
		p.mu.Unlock()
		return
	}
	if !isValidTransition(from, to) {
		p.mu.Unlock()
		panic(fmt.Sprintf("pipeline: invalid transition %s -> %s", from, to))
	}
	p.state = to
	runID := p.runID
	p.mu.Unlock()

	p.logger.Debug(ctx, "[%s] %s -> %s", runID, from, to)
	p.deps.Observer.StateChanged(runID, from, to)
}

// fail records err as the run's outcome and returns it.
func (p *implPipeline) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil && failure.CategoryOf(err) == failure.Unknown {
		err = failure.Wrap(failure.Unknown, "run", ctx.Err())
	}
	p.mu.Lock()
	p.failed = err
	runID := p.runID
	p.mu.Unlock()

	cat := failure.CategoryOf(err)
	p.logger.Error(ctx, "[%s] Run failed (%s): %v", runID, cat, err)
	p.transition(ctx, StateFailed)
	return err
}

func (p *implPipeline) checkNetwork(ctx context.Context) error {
	p.transition(ctx, StateTestingNetwork)
	if p.deps.Network == nil {
		return nil
	}
	return p.deps.Network.Check(ctx)
}

func (p *implPipeline) cleanupExtraction(ctx context.Context, requestID string) {
	if err := p.deps.Extractor.Cleanup(context.WithoutCancel(ctx), requestID); err != nil {
		p.logger.Warn(ctx, "Backend cleanup of %s failed: %v", requestID, err)
	}
}

func (p *implPipeline) progress(runID string, stage State) media.ProgressFunc {
	return func(done, total int64) {
		p.deps.Observer.Progress(runID, stage, done, total)
	}
}

func (p *implPipeline) tooLarge(size int64) error {
	return failure.New(failure.PayloadTooLarge, "check payload",
		fmt.Sprintf("audio is %s, above the %s the provider accepts", media.HumanSize(size), media.HumanSize(p.opts.MaxPayloadBytes)))
}

func titleFromName(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
