package worker

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/sheets"
	"budget/internal/storage"
)

// Exporter assembles the export of one cycle. services.ExportService
// implements it.
type Exporter interface {
	Export(ctx context.Context, userID int64, monthKey string) (core.CycleExport, error)
}

// ExportWorker mirrors cycles into an external sheet as change messages
// arrive.
type ExportWorker struct {
	exporter Exporter
	users    storage.UserStore
	sink     sheets.Sink
	logger   *log.Logger
}

func NewExportWorker(exporter Exporter, users storage.UserStore, sink sheets.Sink, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		exporter: exporter,
		users:    users,
		sink:     sink,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleCycleChanged processes one change message. A returned error makes
// the consumer requeue the message.
func (w *ExportWorker) HandleCycleChanged(ctx context.Context, msg *amqp.CycleChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing cycle change",
		"kind", msg.Kind,
		log.FieldUserID, msg.UserID,
		log.FieldCycleID, msg.CycleID,
		log.FieldMonthKey, msg.MonthKey)

	if msg.Kind == amqp.CycleDeleted {
		return w.RemoveCycle(ctx, msg.UserID, msg.MonthKey)
	}
	return w.SyncCycle(ctx, msg.UserID, msg.MonthKey)
}

// SyncCycle rewrites the sheet of the user's cycle for monthKey. A cycle
// deleted after the message was published has its sheet removed instead.
func (w *ExportWorker) SyncCycle(ctx context.Context, userID int64, monthKey string) error {
	e, err := w.exporter.Export(ctx, userID, monthKey)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.InfoContext(ctx, "Cycle no longer exists, removing its sheet",
			log.FieldUserID, userID, log.FieldMonthKey, monthKey)
		return w.RemoveCycle(ctx, userID, monthKey)
	}
	if err != nil {
		return fmt.Errorf("export %s for user %d: %w", monthKey, userID, err)
	}

	ref, err := w.sink.WriteCycle(ctx, e)
	if err != nil {
		return fmt.Errorf("write sheet for %s: %w", monthKey, err)
	}

	fields := log.NewFields().
		WithUser(userID).
		WithCycle(e.Cycle.ID, monthKey).
		WithOperation(log.OpExport).
		ToSlice()
	w.logger.InfoContext(ctx, "Cycle synced to sheet",
		append(fields, "sheets_ref", ref, "transactions", len(e.Transactions))...)
	return nil
}

// RemoveCycle deletes the sheet of the user's cycle for monthKey. Unknown
// users are skipped since no sheet can exist for them.
func (w *ExportWorker) RemoveCycle(ctx context.Context, userID int64, monthKey string) error {
	u, err := w.users.GetUser(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		w.logger.WarnContext(ctx, "Unknown user, skipping sheet removal",
			log.FieldUserID, userID, log.FieldMonthKey, monthKey)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user %d: %w", userID, err)
	}

	if err := w.sink.DeleteCycle(ctx, u.Username, monthKey); err != nil {
		return fmt.Errorf("delete sheet for %s: %w", monthKey, err)
	}

	w.logger.InfoContext(ctx, "Cycle sheet removed",
		log.FieldUserID, userID,
		log.FieldUsername, u.Username,
		log.FieldMonthKey, monthKey)
	return nil
}
