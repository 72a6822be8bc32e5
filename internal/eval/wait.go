package eval

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultWaitTimeout bounds a synchronous wait on an async evaluation.
	DefaultWaitTimeout = 10 * time.Second

	waitPollInterval = 100 * time.Millisecond
)

// Wait blocks until the request has left its queue, polling rather than
// signaling: completion is observed the same way the placeholder-replacement
// path observes it. Zero timeout means DefaultWaitTimeout.
func (m *Manager) Wait(ctx context.Context, id string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(waitPollInterval)
	defer tick.Stop()

	for {
		if !m.Pending(id) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			m.logger.Warn("request still pending after wait timeout, queue may be stalled",
				"request_id", id, "timeout", timeout)
			return fmt.Errorf("request %s did not complete within %s", id, timeout)
		case <-tick.C:
		}
	}
}
