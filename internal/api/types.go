package api

import (
	"time"

	"github.com/mattjoyce/blockeval/internal/queue"
)

// PutDocRequest is the JSON body for PUT /docs/{key}.
type PutDocRequest struct {
	Text string `json:"text"`
}

// DocResponse is returned by GET /docs/{key} and PUT /docs/{key}.
type DocResponse struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// EvalRequest is the JSON body for POST /eval. Offset addresses any byte
// inside the source block to evaluate.
type EvalRequest struct {
	Doc          string `json:"doc"`
	Offset       int    `json:"offset"`
	Session      string `json:"session,omitempty"`
	Mode         string `json:"mode,omitempty"`
	FileArtifact bool   `json:"file_artifact,omitempty"`
	Debug        bool   `json:"debug,omitempty"`
	// Wait blocks the response until the evaluation completes.
	Wait      bool `json:"wait,omitempty"`
	TimeoutMS int  `json:"timeout_ms,omitempty"`
}

// EvalResponse is returned on successful submission.
type EvalResponse struct {
	RequestID   string `json:"request_id"`
	Placeholder string `json:"placeholder"`
	Status      string `json:"status"`
}

// JournalEntry is the JSON projection of a journal record.
type JournalEntry struct {
	ID          string     `json:"id"`
	Doc         string     `json:"doc"`
	Session     string     `json:"session"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	OutputBytes *int       `json:"output_bytes,omitempty"`
	SkipReason  *string    `json:"skip_reason,omitempty"`
}

// QueuesResponse is returned by GET /queues.
type QueuesResponse struct {
	Queues map[string][]queue.PendingInfo `json:"queues"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthzResponse is returned by GET /healthz.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	QueueDepth    int    `json:"queue_depth"`
	Documents     int    `json:"documents"`
}
