package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-wordclock/internal/wordclock"
)

// stateResponse is the body for GET /api/v1/state.
type stateResponse struct {
	ClockID    string             `json:"clock_id"`
	Name       string             `json:"name"`
	Connection wordclock.State    `json:"connection"`
	State      wordclock.Snapshot `json:"state"`
}

// handleGetState returns the mirrored clock state.
func (s *Server) handleGetState(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.clock.Snapshot()
	if !ok {
		writeNotFound(w, "no state received from the clock yet")
		return
	}

	writeJSON(w, http.StatusOK, stateResponse{
		ClockID:    s.clock.ClockID(),
		Name:       s.clock.ClockName(),
		Connection: s.clock.State(),
		State:      snap,
	})
}

// handlePatchState applies a partial state change to the clock.
//
// The body is a flat JSON object of fields to change. Invalid fields
// are dropped; if nothing valid remains, or the clock rejects the
// change, the request fails and the mirror is untouched.
func (s *Server) handlePatchState(w http.ResponseWriter, r *http.Request) {
	var fields wordclock.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeBadRequest(w, "body must be a JSON object of state fields")
		return
	}
	if len(fields) == 0 {
		writeBadRequest(w, "no fields provided")
		return
	}

	if !s.clock.RequestMutation(r.Context(), fields) {
		writeError(w, http.StatusBadGateway, ErrCodeMutation,
			"clock rejected the change or no field was valid")
		return
	}

	snap, _ := s.clock.Snapshot()

	if s.history != nil {
		err := s.history.RecordChange(r.Context(), s.clock.ClockID(), snap, wordclock.HistorySourceCommand)
		if err != nil {
			s.logger.Warn("recording command history failed", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, stateResponse{
		ClockID:    s.clock.ClockID(),
		Name:       s.clock.ClockName(),
		Connection: s.clock.State(),
		State:      snap,
	})
}

// handleGetHistory returns recent state changes, newest first.
// Query parameters: limit (default 50, max 200).
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeNotFound(w, "state history is not enabled")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeBadRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	entries, err := s.history.GetHistory(r.Context(), s.clock.ClockID(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		writeInternalError(w, "querying state history failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clock_id": s.clock.ClockID(),
		"count":    len(entries),
		"entries":  entries,
	})
}
