package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/lectern/transcribe-flow/internal/codec"
	"github.com/lectern/transcribe-flow/internal/config"
	"github.com/lectern/transcribe-flow/internal/export"
	"github.com/lectern/transcribe-flow/internal/gemini"
	"github.com/lectern/transcribe-flow/internal/logger"
	"github.com/lectern/transcribe-flow/internal/media"
	"github.com/lectern/transcribe-flow/internal/pipeline"
	"github.com/lectern/transcribe-flow/internal/summarizer"
	"github.com/lectern/transcribe-flow/internal/transcoder"
	"github.com/lectern/transcribe-flow/internal/transcriber"
	"github.com/lectern/transcribe-flow/internal/youtube"
	"github.com/lectern/transcribe-flow/pkg/executor"
)

type app struct {
	cfg        *config.Config
	log        logger.Logger
	pipeline   pipeline.Pipeline
	summarizer summarizer.Summarizer
	exporter   export.Exporter
}

// newApp wires every pipeline collaborator from cfg.
func newApp(cfg *config.Config, log logger.Logger, observer pipeline.Observer) (*app, error) {
	if err := ensureDirectories(cfg); err != nil {
		return nil, err
	}

	exec := executor.New()
	geminiOpts := gemini.Options{BaseURL: cfg.Gemini.BaseURL}

	sum := summarizer.New(gemini.New(gemini.ForSummary(cfg.Gemini.SummaryModel), geminiOpts), cfg.Gemini.SummaryTimeout, log)
	exp := export.New(cfg.Paths.Output, cfg.Export.Docx, log)

	p := pipeline.New(pipeline.Options{
		APIKey: cfg.Gemini.APIKey,
		Limits: media.Limits{
			MaxVideoBytes: cfg.Limits.MaxVideoBytes(),
			MaxAudioBytes: cfg.Limits.MaxAudioBytes(),
		},
		MaxPayloadBytes: cfg.Limits.MaxPayloadBytes(),
		AllowedHosts:    cfg.Server.AllowedHosts,
	}, pipeline.Deps{
		Codec:       newCodecProvider(cfg, exec, log),
		Transcoder:  transcoder.New(cfg.Limits.MaxPayloadBytes(), log),
		Transcriber: transcriber.New(gemini.New(gemini.ForTranscription(cfg.Gemini.Model), geminiOpts), cfg.Gemini.TranscribeTimeout, log),
		Summarizer:  sum,
		Extractor:   youtube.New(cfg.Extractor.BaseURL, &http.Client{Timeout: cfg.Extractor.Timeout}, cfg.Limits.MaxPayloadBytes(), log),
		Network:     pipeline.NewHTTPChecker(cfg.Network.ProbeURL, cfg.Network.Timeout, nil),
		Exporter:    exp,
		Observer:    observer,
	}, log)

	return &app{cfg: cfg, log: log, pipeline: p, summarizer: sum, exporter: exp}, nil
}

func newCodecProvider(cfg *config.Config, exec executor.Executor, log logger.Logger) codec.Provider {
	scratch := filepath.Join(cfg.Paths.Temp, "transcribe-flow")
	if cfg.Codec.System {
		return codec.NewSystemProvider(exec, cfg.Codec.FFmpegPath, cfg.Codec.FFprobePath, scratch, log)
	}
	return codec.NewLoader(codec.LoaderOptions{
		Mirrors:       cfg.Codec.Mirrors,
		ProbeResource: cfg.Codec.ProbeResource,
		Executable:    cfg.Codec.Executable,
		Payload:       cfg.Codec.Payload,
		ProbeTimeout:  cfg.Codec.ProbeTimeout,
		InitTimeout:   cfg.Codec.InitTimeout,
		LoadTimeout:   cfg.Codec.LoadTimeout,
		CacheDir:      scratch,
	}, exec, log)
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Input,
		cfg.Paths.Output,
		filepath.Join(cfg.Paths.Temp, "transcribe-flow"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}

// progressLogger reports pipeline progress through the logger.
type progressLogger struct {
	ctx     context.Context
	log     logger.Logger
	lastPct map[pipeline.State]int64
}

func newProgressLogger(ctx context.Context, log logger.Logger) *progressLogger {
	return &progressLogger{ctx: ctx, log: log, lastPct: map[pipeline.State]int64{}}
}

func (o *progressLogger) StateChanged(runID string, from, to pipeline.State) {
	o.log.Info(o.ctx, "[%s] %s", shortID(runID), to)
}

func (o *progressLogger) Progress(runID string, stage pipeline.State, done, total int64) {
	if total <= 0 {
		return
	}
	pct := done * 100 / total
	if pct/25 == o.lastPct[stage]/25 && pct != 100 {
		return
	}
	o.lastPct[stage] = pct
	o.log.Info(o.ctx, "[%s] %s: read %d%%", shortID(runID), stage, pct)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
