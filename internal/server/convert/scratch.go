// Package convert invokes the external document-conversion capability and
// manages the scratch directory holding its ephemeral artifacts.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dkravets/irisvault/internal/common"
	"github.com/dkravets/irisvault/internal/filex"
	"github.com/dkravets/irisvault/internal/logging"
)

// Scratch is the directory of ephemeral conversion artifacts. Artifacts are
// uuid-named, written once, and never part of permanent per-account
// storage; a periodic sweep evicts anything older than the TTL so the
// directory cannot grow without bound.
type Scratch struct {
	dir    string
	ttl    time.Duration
	logger logging.Logger
}

func NewScratch(dir string, ttl time.Duration, logger logging.Logger) (*Scratch, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}
	return &Scratch{dir: abs, ttl: ttl, logger: logger.With("module", "scratch")}, nil
}

// Dir returns the absolute scratch directory path.
func (s *Scratch) Dir() string {
	return s.dir
}

// Write stores the reader's content under name and returns the full path.
func (s *Scratch) Write(name string, r io.Reader) (string, error) {
	full := filepath.Join(s.dir, filex.SanitizeFileName(name))

	f, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("scratch write: %w", err)
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("scratch write: %w", err)
	}

	return full, nil
}

// Open streams an artifact by name. Names are sanitized so the scratch
// directory is the only thing reachable.
func (s *Scratch) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.dir, filex.SanitizeFileName(name)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

// RunJanitor sweeps expired artifacts every interval until the context is
// canceled.
func (s *Scratch) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Scratch) sweep(ctx context.Context) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn(ctx, "scratch sweep failed", "error", err)
		return
	}

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		s.logger.Info(ctx, "scratch artifacts evicted", "count", removed)
	}
}
