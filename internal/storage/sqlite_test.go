package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestOpenSQLiteBootstraps(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "journal.db")
	db, err := OpenSQLite(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM eval_log;").Scan(&count); err != nil {
		t.Fatalf("query eval_log: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty eval_log, got %d rows", count)
	}
}

func TestOpenSQLiteEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := OpenSQLite(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestValidateSQLiteFilesystemRejectsNetworkFS(t *testing.T) {
	t.Parallel()

	detector := func(string) (string, error) { return "nfs", nil }
	if err := validateSQLiteFilesystemWithDetector(t.TempDir(), detector); err == nil {
		t.Fatal("expected error for nfs-backed path")
	}

	detector = func(string) (string, error) { return "ext4", nil }
	if err := validateSQLiteFilesystemWithDetector(t.TempDir(), detector); err != nil {
		t.Fatalf("unexpected error for local path: %v", err)
	}
}
