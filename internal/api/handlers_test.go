package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/blockeval/internal/auth"
	"github.com/mattjoyce/blockeval/internal/eval"
	"github.com/mattjoyce/blockeval/internal/events"
	"github.com/mattjoyce/blockeval/internal/journal"
	"github.com/mattjoyce/blockeval/internal/log"
	"github.com/mattjoyce/blockeval/internal/queue"
	"github.com/mattjoyce/blockeval/internal/request"
)

type fakeCoord struct {
	submitted []eval.SubmitSpec
	nextID    string
	submitErr error
	waitErr   error
	depths    map[string]int
	snapshot  map[string][]queue.PendingInfo
}

func (f *fakeCoord) Submit(ctx context.Context, spec eval.SubmitSpec) (eval.Submission, error) {
	if f.submitErr != nil {
		return eval.Submission{}, f.submitErr
	}
	f.submitted = append(f.submitted, spec)
	id := f.nextID
	if id == "" {
		id = fmt.Sprintf("req-%d", len(f.submitted))
	}
	return eval.Submission{ID: id, Placeholder: eval.Placeholder(id)}, nil
}

func (f *fakeCoord) Wait(ctx context.Context, id string, timeout time.Duration) error {
	return f.waitErr
}

func (f *fakeCoord) Pending(id string) bool { return false }

func (f *fakeCoord) Depths() map[string]int { return f.depths }

func (f *fakeCoord) Snapshot() map[string][]queue.PendingInfo { return f.snapshot }

type fakeJournal struct {
	recs []journal.Record
	err  error
}

func (f *fakeJournal) Recent(ctx context.Context, limit int) ([]journal.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.recs) {
		return f.recs[:limit], nil
	}
	return f.recs, nil
}

func newTestServer(coord *fakeCoord, store JournalReader) (*Server, *events.Hub) {
	hub := events.NewHub(0)
	cfg := Config{
		Listen: "127.0.0.1:0",
		APIKey: "admin-key",
		Tokens: []auth.TokenConfig{
			{Token: "eval-token", Scopes: []string{"eval:rw", "docs:rw"}},
			{Token: "read-token", Scopes: []string{"events:ro"}},
		},
	}
	return New(cfg, coord, store, hub, log.WithComponent("api-test")), hub
}

func doRequest(s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)
	return rec
}

const apiDoc = "#+begin_src julia :session main\n1 + 1\n#+end_src\n"

func putDoc(t *testing.T, s *Server, key, text string) {
	t.Helper()
	rec := doRequest(s, "PUT", "/docs/"+key, "admin-key", PutDocRequest{Text: text})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthzNoAuth(t *testing.T) {
	coord := &fakeCoord{depths: map[string]int{"a/main": 2, "b/main": 1}}
	s, _ := newTestServer(coord, nil)

	rec := doRequest(s, "GET", "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthzResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 3, resp.QueueDepth)
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	s, _ := newTestServer(&fakeCoord{}, nil)

	rec := doRequest(s, "GET", "/queues", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(s, "GET", "/queues", "wrong-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScopeEnforcement(t *testing.T) {
	s, _ := newTestServer(&fakeCoord{}, nil)

	// read-token only has events:ro.
	rec := doRequest(s, "POST", "/eval", "read-token", EvalRequest{Doc: "d"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(s, "GET", "/queues", "read-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDocRoundtrip(t *testing.T) {
	s, _ := newTestServer(&fakeCoord{}, nil)

	putDoc(t, s, "notes.org", apiDoc)

	rec := doRequest(s, "GET", "/docs/notes.org", "eval-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DocResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "notes.org", resp.Key)
	assert.Equal(t, apiDoc, resp.Text)
}

func TestGetDocNotFound(t *testing.T) {
	s, _ := newTestServer(&fakeCoord{}, nil)
	rec := doRequest(s, "GET", "/docs/missing", "eval-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEvalSubmitsBlockAtOffset(t *testing.T) {
	coord := &fakeCoord{}
	s, _ := newTestServer(coord, nil)
	putDoc(t, s, "notes.org", apiDoc)

	offset := strings.Index(apiDoc, "1 + 1")
	rec := doRequest(s, "POST", "/eval", "eval-token", EvalRequest{
		Doc:     "notes.org",
		Offset:  offset,
		Session: "main",
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp EvalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, eval.Placeholder(resp.RequestID), resp.Placeholder)

	require.Len(t, coord.submitted, 1)
	spec := coord.submitted[0]
	assert.Equal(t, "1 + 1\n", spec.Source)
	assert.Equal(t, "main", spec.SessionKey)
	assert.Equal(t, request.ModeValue, spec.Mode)
	assert.Equal(t, 0, spec.AnchorStart.Offset())
	assert.Equal(t, strings.Index(apiDoc, "#+end_src")+len("#+end_src"), spec.AnchorEnd.Offset())
}

func TestEvalOffsetOutsideBlock(t *testing.T) {
	s, _ := newTestServer(&fakeCoord{}, nil)
	putDoc(t, s, "notes.org", "prose only\n")

	rec := doRequest(s, "POST", "/eval", "eval-token", EvalRequest{Doc: "notes.org", Offset: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvalWaitCompleted(t *testing.T) {
	coord := &fakeCoord{}
	s, _ := newTestServer(coord, nil)
	putDoc(t, s, "notes.org", apiDoc)

	rec := doRequest(s, "POST", "/eval", "eval-token", EvalRequest{
		Doc:    "notes.org",
		Offset: strings.Index(apiDoc, "1 + 1"),
		Wait:   true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp EvalResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
}

func TestEvalWaitTimeout(t *testing.T) {
	coord := &fakeCoord{waitErr: fmt.Errorf("timed out")}
	s, _ := newTestServer(coord, nil)
	putDoc(t, s, "notes.org", apiDoc)

	rec := doRequest(s, "POST", "/eval", "eval-token", EvalRequest{
		Doc:    "notes.org",
		Offset: strings.Index(apiDoc, "1 + 1"),
		Wait:   true,
	})
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestQueuesSnapshot(t *testing.T) {
	coord := &fakeCoord{snapshot: map[string][]queue.PendingInfo{
		"notes.org/main": {{ID: "req-1", SessionKey: "main", Dispatched: true}},
	}}
	s, _ := newTestServer(coord, nil)

	rec := doRequest(s, "GET", "/queues", "eval-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp QueuesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Queues["notes.org/main"], 1)
	assert.True(t, resp.Queues["notes.org/main"][0].Dispatched)
}

func TestJournalEndpoint(t *testing.T) {
	now := time.Now().UTC()
	store := &fakeJournal{recs: []journal.Record{
		{ID: "req-1", Doc: "notes.org", Session: "main", Mode: "value",
			Status: journal.StatusCompleted, SubmittedAt: now},
	}}
	s, _ := newTestServer(&fakeCoord{}, store)

	rec := doRequest(s, "GET", "/journal", "admin-key", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []JournalEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "req-1", entries[0].ID)
	assert.Equal(t, "completed", entries[0].Status)
}

func TestJournalBadLimit(t *testing.T) {
	s, _ := newTestServer(&fakeCoord{}, &fakeJournal{})
	rec := doRequest(s, "GET", "/journal?limit=banana", "admin-key", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJournalNotConfigured(t *testing.T) {
	s, _ := newTestServer(&fakeCoord{}, nil)
	rec := doRequest(s, "GET", "/journal", "admin-key", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsStreamReplaysBuffer(t *testing.T) {
	s, hub := newTestServer(&fakeCoord{}, nil)
	hub.Publish(events.TypeSubmitted, map[string]string{"request_id": "req-1"})
	hub.Publish(events.TypeCompleted, map[string]string{"request_id": "req-1"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // handler returns right after the snapshot replay

	req := httptest.NewRequest("GET", "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer read-token")
	rec := httptest.NewRecorder()
	s.setupRoutes().ServeHTTP(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "event: "+events.TypeSubmitted)
	assert.Contains(t, body, "event: "+events.TypeCompleted)
	assert.Contains(t, body, `"request_id":"req-1"`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
}
