package display

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"

	"devcollab/internal/logger"
)

// Snapshot keeps the most recent result and writes it to a PNG file on a
// fixed interval. Each write replaces the previous file.
type Snapshot struct {
	path   string
	logger *logger.Logger

	mu      sync.Mutex
	latest  image.Image
	seq     uint64
	written uint64
}

// NewSnapshot creates a snapshot display writing to path.
func NewSnapshot(path string, logger *logger.Logger) *Snapshot {
	return &Snapshot{path: path, logger: logger}
}

func (s *Snapshot) Show(seq uint64, img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = img
	s.seq = seq
	return nil
}

// Run flushes every interval until ctx is done, then flushes once more.
func (s *Snapshot) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := s.Flush(); err != nil {
				s.logger.Error("Error writing snapshot: %v", err)
			}
			return
		case <-ticker.C:
			if err := s.Flush(); err != nil {
				s.logger.Error("Error writing snapshot: %v", err)
			}
		}
	}
}

// Flush writes the latest result if it has not been written yet.
func (s *Snapshot) Flush() error {
	s.mu.Lock()
	img, seq := s.latest, s.seq
	if img == nil || seq == s.written {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".snapshot-*.png")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.mu.Lock()
	s.written = seq
	s.mu.Unlock()
	s.logger.Info("📸 Snapshot of frame #%d written to %s", seq, s.path)
	return nil
}

// Latest returns the sequence number of the newest shown result.
func (s *Snapshot) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}
