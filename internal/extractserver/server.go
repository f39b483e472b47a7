// Package extractserver is the HTTP backend that extracts a YouTube video's
// audio track for the transcription pipeline.
package extractserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lectern/transcribe-flow/internal/logger"
)

// maxBodyBytes caps the JSON request body.
const maxBodyBytes = 64 << 10

// Options configure a Server.
type Options struct {
	TempDir        string
	AllowedHosts   []string
	MaxConcurrent  int
	ExtractTimeout time.Duration
}

// Server serves the extraction API.
type Server struct {
	opts       Options
	downloader Downloader
	sem        *semaphore
	router     *chi.Mux
	logger     logger.Logger
}

// New creates a Server storing per-request directories under opts.TempDir.
func New(opts Options, downloader Downloader, log logger.Logger) *Server {
	s := &Server{
		opts:       opts,
		downloader: downloader,
		sem:        newSemaphore(opts.MaxConcurrent),
		router:     chi.NewRouter(),
		logger:     log,
	}
	s.registerRoutes()
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware)

	s.router.Get("/api/health", s.health)
	s.router.Post("/api/extract-audio", s.extract)
	s.router.Get("/api/download-audio/{id}/{file}", s.download)
	s.router.Delete("/api/cleanup/{id}", s.cleanup)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
