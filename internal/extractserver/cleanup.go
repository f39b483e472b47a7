package extractserver

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// StartCleanupLoop removes request directories older than ttl every interval
// until ctx is done.
func (s *Server) StartCleanupLoop(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.PurgeStale(ctx, ttl)
			}
		}
	}()
}

// PurgeStale removes request directories last modified more than ttl ago and
// returns how many it removed. A ttl of zero removes every directory, which
// is what startup does with leftovers from a previous process.
func (s *Server) PurgeStale(ctx context.Context, ttl time.Duration) int {
	entries, err := os.ReadDir(s.opts.TempDir)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn(ctx, "list %s: %v", s.opts.TempDir, err)
		}
		return 0
	}

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if ttl > 0 && info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.opts.TempDir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			s.logger.Warn(ctx, "remove stale %s: %v", path, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info(ctx, "removed %d stale request directories", removed)
	}
	return removed
}
