package queue

import (
	"context"
	"time"

	"github.com/mattjoyce/blockeval/internal/document"
	"github.com/mattjoyce/blockeval/internal/request"
	"github.com/mattjoyce/blockeval/internal/watch"
)

//go:generate mockgen -destination=mocks/mock_queue.go -package=mocks github.com/mattjoyce/blockeval/internal/queue Sender,Watcher

// Sender is the slice of the session channel the queue dispatches through.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Watcher is the slice of the completion-signal notifier the queue registers
// sentinel watches with.
type Watcher interface {
	Watch(path string, fn func()) (watch.Handle, error)
	Unwatch(h watch.Handle) error
}

// Pending is one enqueued evaluation: the materialized request plus the
// document location its result belongs to.
type Pending struct {
	Req *request.Request

	Doc         document.Document
	AnchorStart document.Position
	AnchorEnd   document.Position

	// FileArtifact marks results that are files on disk (plots, images);
	// completion refreshes inline artifacts instead of inserting text.
	FileArtifact bool

	// Preamble is optional text sent through the channel before the loader
	// (the debug comment block).
	Preamble string

	SubmittedAt time.Time
}

// PendingInfo is a read-only projection of a queue entry.
type PendingInfo struct {
	ID          string             `json:"id"`
	SessionKey  string             `json:"session"`
	Mode        request.ResultMode `json:"mode"`
	Dispatched  bool               `json:"dispatched"`
	SubmittedAt time.Time          `json:"submitted_at"`
}
