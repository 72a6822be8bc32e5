// Package queue holds the per-document evaluation queue and its watch
// registry.
//
// Each queue is strict FIFO with head-of-line blocking: at most one request
// is dispatched-but-not-completed at a time, everything behind it waits. A
// registry entry exists exactly while its request is in flight; dispatch is
// idempotent against it. Distinct document/session queues are independent.
//
// There is no cancellation. A session that never writes its sentinel stalls
// its queue permanently; that is the cost of the single-interpreter model.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mattjoyce/blockeval/internal/log"
	"github.com/mattjoyce/blockeval/internal/watch"
)

// Queue is a single document/session evaluation queue. The mutex guards the
// (pending, watches) pair; the coordinator's single-logical-thread assumption
// is enforced with a lock because watch callbacks arrive on notifier
// goroutines.
type Queue struct {
	sender  Sender
	watcher Watcher
	onReady func(id string)
	logger  *slog.Logger

	mu      sync.Mutex
	pending []*Pending
	watches map[string]watch.Handle
}

// New creates a queue dispatching through sender and watching sentinels via
// watcher. onReady is invoked with the request id when its sentinel is
// written; it must be idempotent (spurious and duplicate fires happen).
func New(sender Sender, watcher Watcher, onReady func(id string)) *Queue {
	return &Queue{
		sender:  sender,
		watcher: watcher,
		onReady: onReady,
		logger:  log.WithComponent("queue"),
		watches: make(map[string]watch.Handle),
	}
}

// Submit appends p to the tail. It never blocks and never dispatches; pair it
// with TryDispatchHead.
func (q *Queue) Submit(p *Pending) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, p)
}

// TryDispatchHead sends the head request's loader through the channel and
// registers its sentinel watch. Idempotent: a head that is already in the
// watch registry is in flight and this is a no-op, so repeated triggers never
// double-dispatch.
func (q *Queue) TryDispatchHead(ctx context.Context) error {
	q.mu.Lock()
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return nil
	}
	p := q.pending[0]
	if _, inFlight := q.watches[p.Req.ID]; inFlight {
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	// The watch must be live before the loader is sent; the interpreter
	// may write the sentinel at any point afterward.
	id := p.Req.ID
	h, err := q.watcher.Watch(p.Req.OutputPath, func() { q.onReady(id) })
	if err != nil {
		return fmt.Errorf("watch sentinel for request %s: %w", id, err)
	}

	q.mu.Lock()
	stillHead := len(q.pending) > 0 && q.pending[0] == p
	_, dup := q.watches[id]
	if !stillHead || dup {
		q.mu.Unlock()
		_ = q.watcher.Unwatch(h)
		return nil
	}
	q.watches[id] = h
	q.mu.Unlock()

	if p.Preamble != "" {
		if err := q.sender.Send(ctx, p.Preamble); err != nil {
			q.logger.Warn("debug preamble send failed", "request_id", id, "error", err)
		}
	}
	if err := q.sender.Send(ctx, p.Req.LoaderText()); err != nil {
		q.mu.Lock()
		delete(q.watches, id)
		q.mu.Unlock()
		_ = q.watcher.Unwatch(h)
		return fmt.Errorf("dispatch request %s: %w", id, err)
	}

	q.logger.Debug("request dispatched", "request_id", id, "session", p.Req.SessionKey)
	return nil
}

// HeadIfDispatched returns the head entry when it matches id and is in the
// watch registry. This is the reconciler's guard against duplicate or
// spurious completion callbacks.
func (q *Queue) HeadIfDispatched(id string) (*Pending, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 || q.pending[0].Req.ID != id {
		return nil, false
	}
	if _, ok := q.watches[id]; !ok {
		return nil, false
	}
	return q.pending[0], true
}

// CompleteHead removes the head (when it matches id), drops its watch, and
// chain-dispatches the next entry. A stale id is a no-op.
func (q *Queue) CompleteHead(ctx context.Context, id string) {
	q.mu.Lock()
	if len(q.pending) == 0 || q.pending[0].Req.ID != id {
		q.mu.Unlock()
		return
	}
	h, watched := q.watches[id]
	delete(q.watches, id)
	q.pending = q.pending[1:]
	q.mu.Unlock()

	if watched {
		_ = q.watcher.Unwatch(h)
	}
	if err := q.TryDispatchHead(ctx); err != nil {
		q.logger.Warn("chained dispatch failed", "after_request", id, "error", err)
	}
}

// Depth returns the number of pending entries, in-flight head included.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Contains reports whether a request is still queued (any position).
func (q *Queue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, p := range q.pending {
		if p.Req.ID == id {
			return true
		}
	}
	return false
}

// Snapshot returns a projection of the queue, head first.
func (q *Queue) Snapshot() []PendingInfo {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]PendingInfo, 0, len(q.pending))
	for _, p := range q.pending {
		_, dispatched := q.watches[p.Req.ID]
		out = append(out, PendingInfo{
			ID:          p.Req.ID,
			SessionKey:  p.Req.SessionKey,
			Mode:        p.Req.Mode,
			Dispatched:  dispatched,
			SubmittedAt: p.SubmittedAt,
		})
	}
	return out
}
