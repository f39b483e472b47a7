package extractserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/lectern/transcribe-flow/internal/youtube"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(r.Context(), w, http.StatusOK, youtube.StatusResponse{
		Status:  "ok",
		Message: "audio extraction backend is running",
	})
}

func (s *Server) extract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req youtube.ExtractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.respondError(ctx, w, http.StatusBadRequest, "Missing YouTube URL in request body")
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		s.respondError(ctx, w, http.StatusBadRequest, "Empty YouTube URL provided")
		return
	}
	if err := youtube.ValidateURL(req.URL, s.opts.AllowedHosts); err != nil {
		s.respondError(ctx, w, http.StatusBadRequest, "Invalid YouTube URL. Please provide a valid YouTube video URL.")
		return
	}

	if err := s.sem.acquire(ctx); err != nil {
		s.respondError(ctx, w, http.StatusServiceUnavailable, "request cancelled while waiting for a free worker")
		return
	}
	defer s.sem.release()

	id := uuid.New().String()
	dir := filepath.Join(s.opts.TempDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error(ctx, "create request dir %s: %v", dir, err)
		s.respondError(ctx, w, http.StatusInternalServerError, "could not prepare a working directory")
		return
	}

	s.logger.Info(ctx, "[%s] extracting audio from %s (request %s)", middleware.GetReqID(ctx), req.URL, id)
	start := time.Now()

	dlCtx := ctx
	if s.opts.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, s.opts.ExtractTimeout)
		defer cancel()
	}

	meta, file, err := s.downloader.Download(dlCtx, req.URL, dir)
	if err != nil {
		s.removeDir(ctx, dir)
		s.logger.Error(ctx, "extraction %s failed: %v", id, err)
		s.respondError(ctx, w, http.StatusInternalServerError, "Failed to extract audio: "+err.Error())
		return
	}

	s.logger.Info(ctx, "extraction %s done in %s: %q -> %s", id, time.Since(start).Round(time.Millisecond), meta.Title, file)
	s.respondJSON(ctx, w, http.StatusOK, youtube.ExtractResponse{
		Success:       true,
		RequestID:     id,
		AudioFilename: file,
		Metadata:      meta,
	})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := s.requestID(w, r)
	if !ok {
		return
	}
	name, err := url.PathUnescape(chi.URLParam(r, "file"))
	if err != nil || !validFileName(name) {
		s.respondError(ctx, w, http.StatusBadRequest, "Invalid file name")
		return
	}

	dir := filepath.Join(s.opts.TempDir, id)
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		s.respondError(ctx, w, http.StatusNotFound, "Audio file not found or expired")
		return
	}
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		f.Close()
		s.respondError(ctx, w, http.StatusNotFound, "Audio file not found or expired")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeContent(w, r, name, info.ModTime(), f)
	f.Close()

	// one download per extraction
	s.removeDir(ctx, dir)
}

func (s *Server) cleanup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := s.requestID(w, r)
	if !ok {
		return
	}

	dir := filepath.Join(s.opts.TempDir, id)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		s.respondJSON(ctx, w, http.StatusOK, youtube.StatusResponse{Success: true, Message: "No files to clean up"})
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		s.respondError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(ctx, w, http.StatusOK, youtube.StatusResponse{Success: true, Message: "Files cleaned up"})
}

func (s *Server) requestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(r.Context(), w, http.StatusBadRequest, "Invalid request ID")
		return "", false
	}
	return id.String(), true
}

func validFileName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.HasPrefix(name, ".")
}

func (s *Server) removeDir(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn(ctx, "remove %s: %v", dir, err)
	}
}

func (s *Server) respondError(ctx context.Context, w http.ResponseWriter, code int, msg string) {
	s.respondJSON(ctx, w, code, youtube.ErrorResponse{Error: msg})
}

func (s *Server) respondJSON(ctx context.Context, w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error(ctx, "failed to encode json: %v", err)
	}
}
