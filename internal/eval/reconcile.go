package eval

import (
	"context"
	"os"

	"github.com/mattjoyce/blockeval/internal/events"
	"github.com/mattjoyce/blockeval/internal/journal"
	"github.com/mattjoyce/blockeval/internal/queue"
	"github.com/mattjoyce/blockeval/internal/workdir"
)

// SuppressedMessage replaces a result that contains an oversized line.
const SuppressedMessage = "Output suppressed (line too long)"

// onOutputReady runs on a notifier goroutine when a sentinel is written. It
// must tolerate duplicate and spurious fires: the head-match guard makes all
// but the first effective fire a no-op.
func (m *Manager) onOutputReady(id string) {
	m.mu.Lock()
	qc, ok := m.requests[id]
	m.mu.Unlock()
	if !ok {
		return
	}

	p, inFlight := qc.q.HeadIfDispatched(id)
	if !inFlight {
		return
	}

	// A create event can arrive before the write that follows it; a missing
	// or unreadable sentinel here means a later fire will retry.
	raw, err := os.ReadFile(p.Req.OutputPath)
	if err != nil {
		if !os.IsNotExist(err) {
			m.logger.Warn("sentinel read failed", "request_id", id, "error", err)
		}
		return
	}

	status, reason := m.applyResult(p, string(raw))

	eventType := events.TypeCompleted
	switch status {
	case journal.StatusSkipped:
		eventType = events.TypeSkipped
	case journal.StatusSuppressed:
		eventType = events.TypeSuppressed
	}
	ev := lifecyclePayload(qc.key, p.Req)
	if reason != nil {
		ev.Reason = *reason
	}
	m.hub.Publish(eventType, ev)

	ctx := context.Background()
	if m.store != nil {
		if err := m.store.Complete(ctx, id, status, len(raw), reason); err != nil {
			m.logger.Warn("journal update failed", "request_id", id, "error", err)
		}
	}

	if err := m.files.Remove(requestFiles(p)); err != nil {
		m.logger.Warn("request file cleanup failed", "request_id", id, "error", err)
	}

	m.mu.Lock()
	delete(m.requests, id)
	m.mu.Unlock()

	qc.q.CompleteHead(ctx, id)
	m.logger.Info("request reconciled", "request_id", id, "status", string(status))
}

// applyResult validates the anchors and writes output into the document.
// Skips never fail the queue; the request completes either way.
func (m *Manager) applyResult(p *queue.Pending, output string) (journal.Status, *string) {
	if p.AnchorStart == nil || p.AnchorEnd == nil {
		return skip("no anchors")
	}
	// Edits since submission can collapse the region or invert it.
	if p.AnchorStart.Offset() >= p.AnchorEnd.Offset() {
		return skip("anchor collapsed")
	}
	if !p.Doc.IsSourceBlockAt(p.AnchorStart) {
		return skip("anchor no longer at a source block")
	}

	if p.FileArtifact {
		p.Doc.RefreshInlineArtifacts()
		return journal.StatusCompleted, nil
	}

	text := output
	status := journal.StatusCompleted
	var reason *string
	if hasOversizedLine(output, m.maxLineLength) {
		text = SuppressedMessage
		status = journal.StatusSuppressed
		r := "line exceeds maximum length"
		reason = &r
	}

	if err := p.Doc.ReplaceResultAt(p.AnchorStart, p.AnchorEnd, text); err != nil {
		return skip("replace result: " + err.Error())
	}
	return status, reason
}

func skip(reason string) (journal.Status, *string) {
	return journal.StatusSkipped, &reason
}

func requestFiles(p *queue.Pending) workdir.Files {
	return workdir.Files{
		RequestID:  p.Req.ID,
		SourcePath: p.Req.SourcePath,
		OutputPath: p.Req.OutputPath,
	}
}
