package http

import (
	"net/http"

	"budget/internal/log"
)

func (s *Server) handleListCycles(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	cycles, err := s.deps.Cycles.List(r.Context(), u.ID)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	OK(w, toCyclesJSON(cycles))
}

// handleUpsertCycle creates the cycle for monthKey or replaces its salary
// and percentages.
func (s *Server) handleUpsertCycle(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req cycleRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpsert, err)
		return
	}

	c, err := s.deps.Cycles.Upsert(r.Context(), u.ID, req.input())
	if err != nil {
		writeError(w, r, log.OpUpsert, err)
		return
	}
	s.appMetrics.recordCycle()
	OK(w, toCycleJSON(c))
}

func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	c, err := s.deps.Cycles.Get(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	OK(w, toCycleJSON(c))
}

func (s *Server) handleUpdateCycle(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var req cyclePatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	c, err := s.deps.Cycles.Update(r.Context(), id, u.ID, req.patch())
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.appMetrics.recordCycle()
	OK(w, toCycleJSON(c))
}

// handleDeleteCycle removes the cycle together with its transactions.
func (s *Server) handleDeleteCycle(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.deps.Cycles.Delete(r.Context(), id, u.ID); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	OK(w, okJSON{OK: true})
}

func (s *Server) handleCycleSummary(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	sum, err := s.deps.Cycles.Summary(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, r, log.OpSummary, err)
		return
	}
	OK(w, toSummaryJSON(sum))
}
