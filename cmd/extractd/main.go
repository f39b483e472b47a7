package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lectern/transcribe-flow/internal/config"
	"github.com/lectern/transcribe-flow/internal/extractserver"
	"github.com/lectern/transcribe-flow/internal/logger"
	"github.com/lectern/transcribe-flow/pkg/executor"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := os.MkdirAll(cfg.Server.TempDir, 0755); err != nil {
		log.Error(ctx, "Failed to create %s: %v", cfg.Server.TempDir, err)
		os.Exit(1)
	}

	srvc := extractserver.New(extractserver.Options{
		TempDir:        cfg.Server.TempDir,
		AllowedHosts:   cfg.Server.AllowedHosts,
		MaxConcurrent:  cfg.Server.MaxConcurrent,
		ExtractTimeout: cfg.Server.ExtractTimeout,
	}, extractserver.NewYtDlp(executor.New(), cfg.Server.YtDlpPath, cfg.Server.MinAudioBytes), log)

	if n := srvc.PurgeStale(ctx, 0); n > 0 {
		log.Info(ctx, "Removed %d leftover request directories", n)
	}
	srvc.StartCleanupLoop(ctx, cfg.Server.CleanupInterval, cfg.Server.Retention)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srvc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		// extraction holds the response open while yt-dlp runs
		WriteTimeout: cfg.Server.ExtractTimeout + time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info(ctx, "Extraction server listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "Server failed: %v", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info(ctx, "Shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "Graceful shutdown failed: %v", err)
		_ = srv.Close()
	}
	log.Info(shutdownCtx, "Server stopped")
}
