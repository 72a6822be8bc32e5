package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/blockeval/internal/events"
)

func evalEvent(eventType, id string, at time.Time, extra string) events.Event {
	data := `{"request_id":"` + id + `","doc":"notes.org","session":"main","mode":"value"` + extra + `}`
	return events.Event{ID: 1, Type: eventType, At: at, Data: []byte(data)}
}

func TestUpdateEvalStateLifecycle(t *testing.T) {
	evals := make(map[string]*EvalState)
	now := time.Now()

	updateEvalState(evals, evalEvent(events.TypeSubmitted, "req-1", now, ""))
	require.Contains(t, evals, "req-1")
	assert.Equal(t, "queued", evals["req-1"].Status)
	assert.Equal(t, "notes.org", evals["req-1"].Doc)

	updateEvalState(evals, evalEvent(events.TypeDispatched, "req-1", now, ""))
	assert.Equal(t, "running", evals["req-1"].Status)

	updateEvalState(evals, evalEvent(events.TypeCompleted, "req-1", now, ""))
	assert.Equal(t, "completed", evals["req-1"].Status)
}

func TestUpdateEvalStateKeepsReason(t *testing.T) {
	evals := make(map[string]*EvalState)
	updateEvalState(evals, evalEvent(events.TypeSkipped, "req-2", time.Now(), `,"reason":"anchor collapsed"`))

	assert.Equal(t, "skipped", evals["req-2"].Status)
	assert.Equal(t, "anchor collapsed", evals["req-2"].Reason)
}

func TestUpdateEvalStateIgnoresMalformed(t *testing.T) {
	evals := make(map[string]*EvalState)
	updateEvalState(evals, events.Event{Type: events.TypeSubmitted, Data: []byte("not json")})
	updateEvalState(evals, events.Event{Type: events.TypeSubmitted, Data: []byte("{}")})
	assert.Empty(t, evals)
}

func TestRecentEvalsOrdersNewestFirst(t *testing.T) {
	evals := make(map[string]*EvalState)
	base := time.Now()
	updateEvalState(evals, evalEvent(events.TypeSubmitted, "old", base.Add(-time.Minute), ""))
	updateEvalState(evals, evalEvent(events.TypeSubmitted, "new", base, ""))

	out := recentEvals(evals, 10)
	require.Len(t, out, 2)
	assert.Equal(t, "new", out[0].RequestID)
	assert.Equal(t, "old", out[1].RequestID)
}
