package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"budget/internal/core"
	"budget/internal/storage"
)

// ExportService assembles read-only cycle exports for CSV and sheet sinks.
type ExportService struct {
	users  storage.UserStore
	cycles storage.CycleStore
	txns   storage.TransactionStore
}

func NewExportService(store storage.Store) *ExportService {
	return &ExportService{users: store, cycles: store, txns: store}
}

// Export loads the user's cycle for monthKey with its summary and ledger.
func (s *ExportService) Export(ctx context.Context, userID int64, monthKey string) (core.CycleExport, error) {
	if err := core.ValidateMonthKey(monthKey); err != nil {
		return core.CycleExport{}, err
	}

	var (
		user  core.User
		cycle core.Cycle
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.users.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		cycle, err = s.cycles.GetCycleByMonth(gctx, userID, monthKey)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.CycleExport{}, err
	}

	txns, err := s.txns.ListTransactions(ctx, core.TransactionFilter{UserID: userID, CycleID: cycle.ID})
	if err != nil {
		return core.CycleExport{}, fmt.Errorf("load ledger of %s: %w", monthKey, err)
	}
	return core.NewCycleExport(user.Username, cycle, txns), nil
}

// ExportFilename is the download name of a cycle's CSV.
func ExportFilename(monthKey string) string {
	return fmt.Sprintf("transactions_%s.csv", monthKey)
}

// WriteCSV renders the ledger as date,bucket,note,amount rows under a header.
func WriteCSV(w io.Writer, e core.CycleExport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "bucket", "note", "amount"}); err != nil {
		return err
	}
	for _, t := range e.Transactions {
		if err := cw.Write([]string{t.Date.String(), t.Bucket.String(), t.Note, core.FormatAmount(t.Amount)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
