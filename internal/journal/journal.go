// Package journal persists an audit log of evaluations to SQLite. The queue
// itself is in-memory (its anchors are live editor handles that cannot
// survive a restart); the journal is what outlives the process.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
	StatusSuppressed Status = "suppressed"
)

// Record is one evaluation's journal row.
type Record struct {
	ID          string
	Doc         string
	Session     string
	Mode        string
	SourceHash  string
	Status      Status
	SubmittedAt time.Time
	CompletedAt *time.Time
	OutputBytes *int
	SkipReason  *string
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// RecordSubmitted inserts the row for a freshly submitted request.
func (s *Store) RecordSubmitted(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record ID is empty")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO eval_log(id, doc, session, mode, source_hash, status, submitted_at)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, rec.ID, rec.Doc, rec.Session, rec.Mode, rec.SourceHash, StatusSubmitted,
		rec.SubmittedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert eval_log: %w", err)
	}
	return nil
}

// Complete marks a request terminal. outputBytes is the raw sentinel size;
// skipReason is set for skipped or suppressed outcomes.
func (s *Store) Complete(ctx context.Context, id string, status Status, outputBytes int, skipReason *string) error {
	if id == "" {
		return fmt.Errorf("id is empty")
	}
	if status != StatusCompleted && status != StatusSkipped && status != StatusSuppressed {
		return fmt.Errorf("invalid terminal status: %q", status)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `
UPDATE eval_log
SET status = ?, completed_at = ?, output_bytes = ?, skip_reason = ?
WHERE id = ?;
`, status, now, outputBytes, skipReason, id)
	if err != nil {
		return fmt.Errorf("update eval_log: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no eval_log row for id %q", id)
	}
	return nil
}

// Recent returns the newest rows, most recent submission first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, doc, session, mode, source_hash, status, submitted_at, completed_at, output_bytes, skip_reason
FROM eval_log
ORDER BY submitted_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query eval_log: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec          Record
			statusS      string
			submittedS   string
			completedS   sql.NullString
			outputBytesN sql.NullInt64
			skipReasonS  sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.Doc, &rec.Session, &rec.Mode, &rec.SourceHash,
			&statusS, &submittedS, &completedS, &outputBytesN, &skipReasonS); err != nil {
			return nil, fmt.Errorf("scan eval_log: %w", err)
		}
		rec.Status = Status(statusS)
		if t, err := time.Parse(time.RFC3339Nano, submittedS); err == nil {
			rec.SubmittedAt = t
		}
		if completedS.Valid {
			if t, err := time.Parse(time.RFC3339Nano, completedS.String); err == nil {
				rec.CompletedAt = &t
			}
		}
		if outputBytesN.Valid {
			n := int(outputBytesN.Int64)
			rec.OutputBytes = &n
		}
		if skipReasonS.Valid {
			rec.SkipReason = &skipReasonS.String
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Prune deletes rows whose submission is older than retention.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("retention must be positive")
	}
	cutoff := time.Now().UTC().Add(-retention).Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx, `DELETE FROM eval_log WHERE submitted_at < ?;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune eval_log: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
