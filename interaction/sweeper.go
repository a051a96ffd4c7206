package interaction

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/slighter12/sanshu-mcp-go/logger"
)

// ImageSweeper removes saved image files once they outlive the TTL. Only
// files named with SavedImagePrefix are considered.
type ImageSweeper struct {
	dir      string
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewImageSweeper creates a sweeper for dir.
func NewImageSweeper(dir string, ttl, interval time.Duration) *ImageSweeper {
	return &ImageSweeper{dir: dir, ttl: ttl, interval: interval, now: time.Now}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *ImageSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				logger.Info("Swept expired images", "dir", s.dir, "removed", removed)
			}
		}
	}
}

// Sweep deletes expired image files and returns how many were removed.
func (s *ImageSweeper) Sweep() int {
	matches, err := filepath.Glob(filepath.Join(s.dir, SavedImagePrefix+"*"))
	if err != nil {
		logger.Warn("Listing saved images failed", "dir", s.dir, "error", err)
		return 0
	}

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			logger.Warn("Removing saved image failed", "file", path, "error", err)
			continue
		}
		removed++
	}
	return removed
}
