package http

import (
	"net/http"

	"budget/internal/log"
)

// handleListTransactions lists a cycle's ledger, optionally for one bucket.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())
	q := r.URL.Query()

	cycleID, err := QueryID(q, "cycleId")
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	bucket, err := QueryBucket(q, "bucket")
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}

	txns, err := s.deps.Transactions.List(r.Context(), u.ID, cycleID, bucket)
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	OK(w, toTransactionsJSON(txns))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	var req transactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}

	res, err := s.deps.Transactions.Create(r.Context(), u.ID, in)
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	s.appMetrics.recordTransaction()
	NewJSONResponse().
		Status(http.StatusCreated).
		Body(toTransactionResultJSON(res.Transaction, res.Summary)).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	var req transactionPatchRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}

	res, err := s.deps.Transactions.Update(r.Context(), id, u.ID, patch)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	s.appMetrics.recordTransaction()
	OK(w, toTransactionResultJSON(res.Transaction, res.Summary))
}

// handleDeleteTransaction removes a ledger row and returns the refreshed
// summary of its cycle.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	id, err := PathID(r, "id")
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	sum, err := s.deps.Transactions.Delete(r.Context(), id, u.ID)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	summary := toSummaryJSON(sum)
	OK(w, okJSON{OK: true, Summary: &summary})
}
