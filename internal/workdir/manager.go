// Package workdir allocates the on-disk half of an evaluation request: the
// wrapped source file the loader includes, and the sentinel path the
// interpreter writes its result to.
package workdir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Files holds the filesystem locations allocated for one request.
type Files struct {
	RequestID  string
	SourcePath string
	OutputPath string
}

// CleanupReport summarizes a cleanup run.
type CleanupReport struct {
	DeletedFiles int
}

// Manager allocates request files under a single base directory. Keeping all
// sentinels in one directory lets the fsnotify backend watch one directory
// regardless of how many evaluations are in flight.
type Manager struct {
	baseDir string
	now     func() time.Time
}

// NewManager creates a manager rooted at baseDir. Empty baseDir falls back to
// a blockeval directory under the system temp dir.
func NewManager(baseDir string) (*Manager, error) {
	trimmed := strings.TrimSpace(baseDir)
	if trimmed == "" {
		trimmed = filepath.Join(os.TempDir(), "blockeval")
	}
	return &Manager{
		baseDir: filepath.Clean(trimmed),
		now:     time.Now,
	}, nil
}

// BaseDir returns the directory request files live in.
func (m *Manager) BaseDir() string { return m.baseDir }

// Allocate creates the source file for requestID and reserves the sentinel
// path next to it. The sentinel itself is not created; its appearance is the
// completion signal.
func (m *Manager) Allocate(ctx context.Context, requestID string) (Files, error) {
	if err := ctx.Err(); err != nil {
		return Files{}, err
	}
	if err := validateRequestID(requestID); err != nil {
		return Files{}, err
	}

	if err := os.MkdirAll(m.baseDir, 0o755); err != nil {
		return Files{}, fmt.Errorf("create workdir base directory: %w", err)
	}

	srcPath := filepath.Join(m.baseDir, "src-"+requestID+".jl")
	f, err := os.OpenFile(srcPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Files{}, fmt.Errorf("create source file for request %q: %w", requestID, err)
	}
	if err := f.Close(); err != nil {
		return Files{}, fmt.Errorf("close source file for request %q: %w", requestID, err)
	}

	return Files{
		RequestID:  requestID,
		SourcePath: srcPath,
		OutputPath: filepath.Join(m.baseDir, "out-"+requestID),
	}, nil
}

// Remove deletes both files of a completed request. Missing files are fine;
// a skipped insertion still produced a sentinel, a stale one may not have.
func (m *Manager) Remove(f Files) error {
	for _, p := range []string{f.SourcePath, f.OutputPath} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove request file %q: %w", p, err)
		}
	}
	return nil
}

// Cleanup removes request files older than olderThan. Evaluations that never
// completed leave their files behind (there is no cancellation path); this is
// the manual sweep for them.
func (m *Manager) Cleanup(ctx context.Context, olderThan time.Duration) (CleanupReport, error) {
	if err := ctx.Err(); err != nil {
		return CleanupReport{}, err
	}
	if olderThan <= 0 {
		return CleanupReport{}, fmt.Errorf("olderThan must be positive")
	}

	entries, err := os.ReadDir(m.baseDir)
	if os.IsNotExist(err) {
		return CleanupReport{}, nil
	}
	if err != nil {
		return CleanupReport{}, fmt.Errorf("read workdir base directory: %w", err)
	}

	cutoff := m.now().Add(-olderThan)
	report := CleanupReport{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "src-") && !strings.HasPrefix(name, "out-") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return report, fmt.Errorf("read workdir entry info %q: %w", name, err)
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(m.baseDir, name)); err != nil {
			return report, fmt.Errorf("remove stale request file %q: %w", name, err)
		}
		report.DeletedFiles++
	}

	return report, nil
}

func validateRequestID(id string) error {
	if id == "" {
		return fmt.Errorf("request ID is empty")
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return fmt.Errorf("request ID %q contains path elements", id)
	}
	return nil
}
