// Package eval is the coordinator: it materializes requests, routes them to
// per-document/session queues, and reconciles sentinel output back into the
// document.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mattjoyce/blockeval/internal/document"
	"github.com/mattjoyce/blockeval/internal/events"
	"github.com/mattjoyce/blockeval/internal/journal"
	"github.com/mattjoyce/blockeval/internal/log"
	"github.com/mattjoyce/blockeval/internal/queue"
	"github.com/mattjoyce/blockeval/internal/request"
	"github.com/mattjoyce/blockeval/internal/session"
	"github.com/mattjoyce/blockeval/internal/workdir"
)

// DefaultMaxLineLength is the longest result line inserted verbatim; anything
// longer suppresses the whole result.
const DefaultMaxLineLength = 12000

// ChannelProvider resolves a session key to its text channel. Called once per
// queue context; the channel is reused for every request on that queue.
type ChannelProvider interface {
	Channel(sessionKey string) (session.Channel, error)
}

// ChannelProviderFunc adapts a function to ChannelProvider.
type ChannelProviderFunc func(sessionKey string) (session.Channel, error)

func (f ChannelProviderFunc) Channel(sessionKey string) (session.Channel, error) {
	return f(sessionKey)
}

// SubmitSpec describes one evaluation to enqueue.
type SubmitSpec struct {
	Doc        document.Document
	Source     string
	Mode       request.ResultMode
	SessionKey string

	// AnchorStart and AnchorEnd delimit the source block region; the
	// document keeps them live across edits.
	AnchorStart document.Position
	AnchorEnd   document.Position

	// FileArtifact marks results that land on disk rather than as text.
	FileArtifact bool

	// Debug echoes the generated request through the channel as a comment
	// block before the loader.
	Debug bool
}

// Submission is what Submit hands back immediately: the request id and the
// placeholder text the caller shows until the result arrives.
type Submission struct {
	ID          string
	Placeholder string
}

// Manager owns every queue context and the request routing table.
type Manager struct {
	builder  *request.Builder
	files    *workdir.Manager
	channels ChannelProvider
	watcher  queue.Watcher
	hub      *events.Hub
	store    *journal.Store // optional
	logger   *slog.Logger

	maxLineLength int

	mu       sync.Mutex
	queues   map[queueKey]*queueContext
	requests map[string]*queueContext
}

type queueKey struct {
	doc     string
	session string
}

type queueContext struct {
	key queueKey
	q   *queue.Queue
}

// Option tweaks a Manager.
type Option func(*Manager)

// WithJournal attaches a persistent evaluation log.
func WithJournal(store *journal.Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithMaxLineLength overrides the suppression threshold.
func WithMaxLineLength(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxLineLength = n
		}
	}
}

// NewManager wires the coordinator. hub may not be nil; pass a fresh Hub when
// nothing subscribes.
func NewManager(builder *request.Builder, files *workdir.Manager, channels ChannelProvider, watcher queue.Watcher, hub *events.Hub, opts ...Option) *Manager {
	m := &Manager{
		builder:       builder,
		files:         files,
		channels:      channels,
		watcher:       watcher,
		hub:           hub,
		logger:        log.WithComponent("eval"),
		maxLineLength: DefaultMaxLineLength,
		queues:        make(map[queueKey]*queueContext),
		requests:      make(map[string]*queueContext),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Submit enqueues spec and returns without waiting for the interpreter. The
// result arrives later through the sentinel watch; the returned placeholder
// stands in until then.
func (m *Manager) Submit(ctx context.Context, spec SubmitSpec) (Submission, error) {
	if spec.Doc == nil {
		return Submission{}, fmt.Errorf("document is nil")
	}

	req, err := m.builder.Build(ctx, spec.Source, spec.Mode, spec.SessionKey)
	if err != nil {
		return Submission{}, err
	}

	qc, err := m.queueContext(spec.Doc.Key(), req.SessionKey)
	if err != nil {
		return Submission{}, err
	}

	p := &queue.Pending{
		Req:          req,
		Doc:          spec.Doc,
		AnchorStart:  spec.AnchorStart,
		AnchorEnd:    spec.AnchorEnd,
		FileArtifact: spec.FileArtifact,
		SubmittedAt:  time.Now().UTC(),
	}
	if spec.Debug {
		p.Preamble = req.DebugBanner()
	}

	m.mu.Lock()
	m.requests[req.ID] = qc
	m.mu.Unlock()

	qc.q.Submit(p)

	m.hub.Publish(events.TypeSubmitted, lifecyclePayload(qc.key, req))
	if m.store != nil {
		rec := journal.Record{
			ID:          req.ID,
			Doc:         qc.key.doc,
			Session:     req.SessionKey,
			Mode:        string(req.Mode),
			SourceHash:  req.Fingerprint,
			SubmittedAt: p.SubmittedAt,
		}
		if err := m.store.RecordSubmitted(ctx, rec); err != nil {
			m.logger.Warn("journal insert failed", "request_id", req.ID, "error", err)
		}
	}

	if err := qc.q.TryDispatchHead(ctx); err != nil {
		m.logger.Warn("dispatch failed, request stays queued", "request_id", req.ID, "error", err)
	} else if _, inFlight := qc.q.HeadIfDispatched(req.ID); inFlight {
		m.hub.Publish(events.TypeDispatched, lifecyclePayload(qc.key, req))
	}

	return Submission{ID: req.ID, Placeholder: Placeholder(req.ID)}, nil
}

// Hub exposes the lifecycle event hub for SSE streaming and the watch TUI.
func (m *Manager) Hub() *events.Hub {
	return m.hub
}

// Placeholder is the text shown in place of a result that has not arrived.
func Placeholder(id string) string {
	return "Executing... " + id
}

// Pending reports whether the request is still queued or in flight.
func (m *Manager) Pending(id string) bool {
	m.mu.Lock()
	qc, ok := m.requests[id]
	m.mu.Unlock()
	return ok && qc.q.Contains(id)
}

// Depths returns the pending count of every live queue context, keyed
// "<doc>/<session>".
func (m *Manager) Depths() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.queues))
	for k, qc := range m.queues {
		out[k.doc+"/"+k.session] = qc.q.Depth()
	}
	return out
}

// Snapshot returns every queue's entries, keyed "<doc>/<session>".
func (m *Manager) Snapshot() map[string][]queue.PendingInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]queue.PendingInfo, len(m.queues))
	for k, qc := range m.queues {
		out[k.doc+"/"+k.session] = qc.q.Snapshot()
	}
	return out
}

// queueContext returns the queue for (doc, session), creating it on first use.
func (m *Manager) queueContext(docKey, sessionKey string) (*queueContext, error) {
	key := queueKey{doc: docKey, session: sessionKey}

	m.mu.Lock()
	if qc, ok := m.queues[key]; ok {
		m.mu.Unlock()
		return qc, nil
	}
	m.mu.Unlock()

	ch, err := m.channels.Channel(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("resolve channel for session %q: %w", sessionKey, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if qc, ok := m.queues[key]; ok {
		return qc, nil
	}
	qc := &queueContext{key: key}
	qc.q = queue.New(ch, m.watcher, m.onOutputReady)
	m.queues[key] = qc
	return qc, nil
}

type lifecycleEvent struct {
	RequestID string `json:"request_id"`
	Doc       string `json:"doc"`
	Session   string `json:"session"`
	Mode      string `json:"mode"`
	Reason    string `json:"reason,omitempty"`
}

func lifecyclePayload(key queueKey, req *request.Request) lifecycleEvent {
	return lifecycleEvent{
		RequestID: req.ID,
		Doc:       key.doc,
		Session:   req.SessionKey,
		Mode:      string(req.Mode),
	}
}

// hasOversizedLine reports whether any line of s exceeds max characters.
func hasOversizedLine(s string, max int) bool {
	for _, line := range strings.Split(s, "\n") {
		if len(line) > max {
			return true
		}
	}
	return false
}
