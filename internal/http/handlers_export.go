package http

import (
	"bytes"
	"fmt"
	"net/http"

	"budget/internal/log"
	"budget/internal/services"
)

// handleExport serves a cycle's ledger as a CSV download. The file is
// rendered fully before anything is written so failures still map to a
// JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromContext(r.Context())

	monthKey, err := QueryMonthKey(r.URL.Query(), "monthKey")
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}

	export, err := s.deps.Export.Export(r.Context(), u.ID, monthKey)
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}

	var buf bytes.Buffer
	if err := services.WriteCSV(&buf, export); err != nil {
		writeError(w, r, log.OpExport, fmt.Errorf("render csv: %w", err))
		return
	}

	s.appMetrics.recordExport()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Cycle exported",
		log.FieldOperation, log.OpExport,
		log.FieldMonthKey, monthKey,
		"rows", len(export.Transactions))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ExportFilename(monthKey)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
