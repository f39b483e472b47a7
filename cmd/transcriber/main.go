package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/lectern/transcribe-flow/internal/config"
	"github.com/lectern/transcribe-flow/internal/logger"
	"github.com/lectern/transcribe-flow/internal/media"
	"github.com/lectern/transcribe-flow/internal/pipeline"
	"github.com/lectern/transcribe-flow/internal/watcher"
	"github.com/lectern/transcribe-flow/internal/youtube"
)

const usage = `usage: transcriber [-config config.yaml] <command> [args]

commands:
  run [-summary] <file|url>   transcribe a local media file or a YouTube URL
  summarize <transcript.txt>  summarize an existing transcript
  watch                       transcribe files dropped into paths.input`

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the transcript, logs go to stderr
	log := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)

	a, err := newApp(cfg, log, newProgressLogger(ctx, log))
	if err != nil {
		log.Error(ctx, "Failed to initialise: %v", err)
		os.Exit(1)
	}

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "run":
		err = a.run(ctx, args)
	case "summarize":
		err = a.summarizeFile(ctx, args)
	case "watch":
		err = a.watch(ctx)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, pipeline.Guidance(err))
		log.Error(ctx, "%s failed: %v", cmd, err)
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	withSummary := fs.Bool("summary", false, "also summarize the transcript")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("run needs exactly one file or URL")
	}
	target := fs.Arg(0)

	var (
		res pipeline.Result
		err error
	)
	if youtube.IsURL(target) {
		res, err = a.pipeline.RunURL(ctx, target)
	} else {
		in, ferr := media.FromFile(target)
		if ferr != nil {
			return fmt.Errorf("open input: %w", ferr)
		}
		res, err = a.pipeline.RunFile(ctx, in)
	}
	if err != nil {
		return err
	}

	fmt.Println(res.Transcript)
	for _, p := range res.Artifacts {
		a.log.Info(ctx, "Transcript saved: %s", p)
	}

	if !*withSummary {
		return nil
	}
	summary, err := a.pipeline.Summarize(ctx)
	if err != nil {
		// the transcript is already saved
		fmt.Fprintln(os.Stderr, pipeline.Guidance(err))
		a.log.Warn(ctx, "Summary failed: %v", err)
		return nil
	}
	fmt.Printf("\n--- summary ---\n%s\n", summary)
	return nil
}

func (a *app) summarizeFile(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("summarize needs exactly one transcript file")
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}

	summary, err := a.summarizer.Summarize(ctx, string(raw), a.cfg.Gemini.APIKey)
	if err != nil {
		return err
	}

	title := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	title = strings.TrimSuffix(title, ".transcript")
	paths, err := a.exporter.WriteSummary(ctx, title, summary)
	if err != nil {
		return err
	}
	fmt.Println(summary)
	for _, p := range paths {
		a.log.Info(ctx, "Summary saved: %s", p)
	}
	return nil
}

func (a *app) watch(ctx context.Context) error {
	processed := filepath.Join(a.cfg.Paths.Input, "processed")
	if err := os.MkdirAll(processed, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", processed, err)
	}

	handler := func(ctx context.Context, path string) error {
		in, err := media.FromFile(path)
		if err != nil {
			return err
		}
		_, runErr := a.pipeline.RunFile(ctx, in)
		if runErr != nil {
			a.log.Warn(ctx, "%s: %s", filepath.Base(path), pipeline.Guidance(runErr))
		}
		// move the input aside either way so it is not picked up again
		if err := os.Rename(path, filepath.Join(processed, filepath.Base(path))); err != nil {
			a.log.Warn(ctx, "Failed to move %s: %v", path, err)
		}
		return runErr
	}

	w, err := watcher.New(a.cfg.Paths.Input, handler, media.IsMediaFile, 0, a.log)
	if err != nil {
		return err
	}
	defer w.Stop()

	a.log.Info(ctx, "Watching %s, writing to %s. Press Ctrl+C to stop", a.cfg.Paths.Input, a.cfg.Paths.Output)
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
