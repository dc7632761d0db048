package services

import (
	"context"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage"
)

// LedgerStore is the storage surface needed to manage cycles and their
// transactions.
type LedgerStore interface {
	storage.CycleStore
	storage.TransactionStore
}

// CycleService owns the lifecycle of budget cycles.
type CycleService struct {
	store     LedgerStore
	publisher ChangePublisher
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewCycleService wires a CycleService. publisher may be nil.
func NewCycleService(store LedgerStore, publisher ChangePublisher, logger *log.Logger) *CycleService {
	logger = defaultLogger(logger, log.ComponentCycle)
	return &CycleService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

// Upsert creates the cycle for in.MonthKey or replaces salary and
// percentages of the existing one. Repeating the call with the same input
// leaves a single cycle with the same values.
func (s *CycleService) Upsert(ctx context.Context, userID int64, in core.CycleInput) (core.Cycle, error) {
	c, err := core.NewCycle(userID, in)
	if err != nil {
		return core.Cycle{}, err
	}

	saved, err := s.store.UpsertCycle(ctx, c)
	if err != nil {
		return core.Cycle{}, fmt.Errorf("save cycle: %w", err)
	}

	s.events.LogCycleSaved(ctx, log.OpUpsert, userID, saved.ID, saved.MonthKey, saved.Salary.String())
	notify(ctx, s.publisher, s.logger, amqp.NewCycleChangedMessage(amqp.CycleUpserted, userID, saved.ID, saved.MonthKey))
	return saved, nil
}

func (s *CycleService) Get(ctx context.Context, id, userID int64) (core.Cycle, error) {
	return s.store.GetCycle(ctx, id, userID)
}

// Update merges patch over the stored cycle, re-validates the merged
// percentages and recomputes the allocation. An empty patch returns the
// stored cycle untouched.
func (s *CycleService) Update(ctx context.Context, id, userID int64, patch core.CyclePatch) (core.Cycle, error) {
	current, err := s.store.GetCycle(ctx, id, userID)
	if err != nil {
		return core.Cycle{}, err
	}
	if patch.IsEmpty() {
		return current, nil
	}

	merged, err := patch.Apply(current)
	if err != nil {
		return core.Cycle{}, err
	}

	saved, err := s.store.UpdateCycle(ctx, merged)
	if err != nil {
		return core.Cycle{}, fmt.Errorf("save cycle: %w", err)
	}

	s.events.LogCycleSaved(ctx, log.OpUpdate, userID, saved.ID, saved.MonthKey, saved.Salary.String())
	notify(ctx, s.publisher, s.logger, amqp.NewCycleChangedMessage(amqp.CycleUpdated, userID, saved.ID, saved.MonthKey))
	return saved, nil
}

// Delete removes the cycle together with its transactions.
func (s *CycleService) Delete(ctx context.Context, id, userID int64) error {
	current, err := s.store.GetCycle(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCycle(ctx, id, userID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Cycle deleted",
		log.NewFields().WithUser(userID).WithCycle(id, current.MonthKey).WithOperation(log.OpDelete).ToSlice()...)
	notify(ctx, s.publisher, s.logger, amqp.NewCycleChangedMessage(amqp.CycleDeleted, userID, id, current.MonthKey))
	return nil
}

// List returns the user's cycles, most recent month first.
func (s *CycleService) List(ctx context.Context, userID int64) ([]core.Cycle, error) {
	cycles, err := s.store.ListCycles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cycles == nil {
		cycles = []core.Cycle{}
	}
	return cycles, nil
}

// Summary folds the cycle's full ledger into per-bucket balances.
func (s *CycleService) Summary(ctx context.Context, id, userID int64) (core.Summary, error) {
	c, err := s.store.GetCycle(ctx, id, userID)
	if err != nil {
		return core.Summary{}, err
	}
	return summarize(ctx, s.store, c)
}

func summarize(ctx context.Context, txns storage.TransactionStore, c core.Cycle) (core.Summary, error) {
	ledger, err := txns.ListTransactions(ctx, core.TransactionFilter{UserID: c.UserID, CycleID: c.ID})
	if err != nil {
		return core.Summary{}, fmt.Errorf("load ledger of cycle %d: %w", c.ID, err)
	}
	return core.Summarize(c, ledger), nil
}
