package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mattjoyce/blockeval/internal/document"
	"github.com/mattjoyce/blockeval/internal/eval"
	"github.com/mattjoyce/blockeval/internal/request"
	"github.com/mattjoyce/blockeval/internal/session"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	depth := 0
	for _, d := range s.coord.Depths() {
		depth += d
	}

	s.mu.Lock()
	docs := len(s.docs)
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		QueueDepth:    depth,
		Documents:     docs,
	})
}

// handlePutDoc handles PUT /docs/{key}: create or replace a headless document.
func (s *Server) handlePutDoc(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		s.writeError(w, http.StatusBadRequest, "document key is required")
		return
	}

	var req PutDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	buf := document.NewBuffer(key, req.Text)
	s.mu.Lock()
	s.docs[key] = buf
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, DocResponse{Key: key, Text: buf.String()})
}

// handleGetDoc handles GET /docs/{key}: current text, results included.
func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	buf, ok := s.doc(chi.URLParam(r, "key"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	respondJSON(w, http.StatusOK, DocResponse{Key: buf.Key(), Text: buf.String()})
}

// handleEval handles POST /eval: locate the block at the offset, submit it,
// optionally wait for completion.
func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	var req EvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	buf, ok := s.doc(req.Doc)
	if !ok {
		s.writeError(w, http.StatusNotFound, "document not found")
		return
	}

	region, ok := buf.BlockAt(req.Offset)
	if !ok {
		s.writeError(w, http.StatusBadRequest, "offset is not inside a source block")
		return
	}

	mode := request.ResultMode(req.Mode)
	if req.Mode == "" {
		mode = request.ModeValue
	}
	sessionKey := req.Session
	if sessionKey == "" {
		sessionKey = session.NoSession
	}

	sub, err := s.coord.Submit(r.Context(), eval.SubmitSpec{
		Doc:          buf,
		Source:       region.Source,
		Mode:         mode,
		SessionKey:   sessionKey,
		AnchorStart:  buf.NewPosition(region.Start),
		AnchorEnd:    buf.NewPosition(region.End),
		FileArtifact: req.FileArtifact,
		Debug:        req.Debug,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !req.Wait {
		respondJSON(w, http.StatusAccepted, EvalResponse{
			RequestID:   sub.ID,
			Placeholder: sub.Placeholder,
			Status:      "pending",
		})
		return
	}

	timeout := time.Duration(req.TimeoutMS) * time.Millisecond
	if timeout <= 0 || timeout > s.config.MaxWaitTimeout {
		timeout = s.config.MaxWaitTimeout
	}
	if err := s.coord.Wait(r.Context(), sub.ID, timeout); err != nil {
		respondJSON(w, http.StatusGatewayTimeout, EvalResponse{
			RequestID:   sub.ID,
			Placeholder: sub.Placeholder,
			Status:      "pending",
		})
		return
	}

	respondJSON(w, http.StatusOK, EvalResponse{
		RequestID:   sub.ID,
		Placeholder: sub.Placeholder,
		Status:      "completed",
	})
}

// handleQueues handles GET /queues.
func (s *Server) handleQueues(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, QueuesResponse{Queues: s.coord.Snapshot()})
}

// handleJournal handles GET /journal?limit=N.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "journal not configured")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("journal query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "journal query failed")
		return
	}

	out := make([]JournalEntry, 0, len(recs))
	for _, rec := range recs {
		out = append(out, JournalEntry{
			ID:          rec.ID,
			Doc:         rec.Doc,
			Session:     rec.Session,
			Mode:        rec.Mode,
			Status:      string(rec.Status),
			SubmittedAt: rec.SubmittedAt,
			CompletedAt: rec.CompletedAt,
			OutputBytes: rec.OutputBytes,
			SkipReason:  rec.SkipReason,
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) doc(key string) (*document.Buffer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf, ok := s.docs[key]
	return buf, ok
}

// respondJSON is a helper to write JSON responses.
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
