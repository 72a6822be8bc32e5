package workdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerAllocate(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "evals")
	mgr, err := NewManager(baseDir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	files, err := mgr.Allocate(context.Background(), "req-a")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	wantSrc := filepath.Join(baseDir, "src-req-a.jl")
	if files.SourcePath != wantSrc {
		t.Fatalf("Allocate() source = %q, want %q", files.SourcePath, wantSrc)
	}
	if _, err := os.Stat(files.SourcePath); err != nil {
		t.Fatalf("Stat(source) error = %v", err)
	}

	// Sentinel must NOT exist yet; its appearance is the completion signal.
	if _, err := os.Stat(files.OutputPath); !os.IsNotExist(err) {
		t.Fatalf("output sentinel exists before evaluation: %v", err)
	}
}

func TestManagerAllocateDuplicateID(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "evals"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	if _, err := mgr.Allocate(context.Background(), "req-a"); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if _, err := mgr.Allocate(context.Background(), "req-a"); err == nil {
		t.Fatal("expected error for duplicate request ID")
	}
}

func TestManagerAllocateRejectsPathyIDs(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "evals"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	for _, id := range []string{"", "a/b", `a\b`, ".."} {
		if _, err := mgr.Allocate(context.Background(), id); err == nil {
			t.Fatalf("Allocate(%q) expected error", id)
		}
	}
}

func TestManagerRemove(t *testing.T) {
	mgr, err := NewManager(filepath.Join(t.TempDir(), "evals"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	files, err := mgr.Allocate(context.Background(), "req-a")
	if err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if err := os.WriteFile(files.OutputPath, []byte("2\n"), 0o644); err != nil {
		t.Fatalf("write sentinel: %v", err)
	}

	if err := mgr.Remove(files); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(files.SourcePath); !os.IsNotExist(err) {
		t.Fatalf("source still present: %v", err)
	}

	// Removing again is fine.
	if err := mgr.Remove(files); err != nil {
		t.Fatalf("Remove() second call error = %v", err)
	}
}

func TestManagerCleanup(t *testing.T) {
	baseDir := filepath.Join(t.TempDir(), "evals")
	mgr, err := NewManager(baseDir)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	stale, err := mgr.Allocate(context.Background(), "req-old")
	if err != nil {
		t.Fatalf("Allocate(stale) error = %v", err)
	}
	fresh, err := mgr.Allocate(context.Background(), "req-new")
	if err != nil {
		t.Fatalf("Allocate(fresh) error = %v", err)
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(stale.SourcePath, old, old); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	report, err := mgr.Cleanup(context.Background(), time.Hour)
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if report.DeletedFiles != 1 {
		t.Fatalf("Cleanup() deleted = %d, want 1", report.DeletedFiles)
	}
	if _, err := os.Stat(stale.SourcePath); !os.IsNotExist(err) {
		t.Fatalf("stale source still present: %v", err)
	}
	if _, err := os.Stat(fresh.SourcePath); err != nil {
		t.Fatalf("fresh source removed: %v", err)
	}
}
