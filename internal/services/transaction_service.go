package services

import (
	"context"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
)

// TransactionResult is a ledger row together with the summary of its cycle
// recomputed after the mutation.
type TransactionResult struct {
	Transaction core.Transaction
	Summary     core.Summary
}

// TransactionService records spending against a cycle's buckets.
type TransactionService struct {
	store     LedgerStore
	publisher ChangePublisher
	logger    *log.Logger
	events    *log.StructuredLogger
}

// NewTransactionService wires a TransactionService. publisher may be nil.
func NewTransactionService(store LedgerStore, publisher ChangePublisher, logger *log.Logger) *TransactionService {
	logger = defaultLogger(logger, log.ComponentLedger)
	return &TransactionService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
	}
}

// Create appends a transaction to one of the user's cycles. Overspending a
// bucket is allowed.
func (s *TransactionService) Create(ctx context.Context, userID int64, in core.TransactionInput) (TransactionResult, error) {
	if err := in.Validate(); err != nil {
		return TransactionResult{}, err
	}
	c, err := s.store.GetCycle(ctx, in.CycleID, userID)
	if err != nil {
		return TransactionResult{}, err
	}

	saved, err := s.store.CreateTransaction(ctx, core.Transaction{
		UserID:  userID,
		CycleID: c.ID,
		Bucket:  in.Bucket,
		Date:    in.Date,
		Note:    in.Note,
		Amount:  in.Amount,
	})
	if err != nil {
		return TransactionResult{}, fmt.Errorf("save transaction: %w", err)
	}

	return s.finish(ctx, log.OpCreate, c, saved)
}

// Update applies patch to one of the user's transactions. The owning cycle
// cannot change.
func (s *TransactionService) Update(ctx context.Context, id, userID int64, patch core.TransactionPatch) (TransactionResult, error) {
	current, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return TransactionResult{}, err
	}
	merged, err := patch.Apply(current)
	if err != nil {
		return TransactionResult{}, err
	}

	saved, err := s.store.UpdateTransaction(ctx, merged)
	if err != nil {
		return TransactionResult{}, fmt.Errorf("save transaction: %w", err)
	}

	c, err := s.store.GetCycle(ctx, saved.CycleID, userID)
	if err != nil {
		return TransactionResult{}, err
	}
	return s.finish(ctx, log.OpUpdate, c, saved)
}

// Delete removes one of the user's transactions and returns the summary of
// the cycle it belonged to.
func (s *TransactionService) Delete(ctx context.Context, id, userID int64) (core.Summary, error) {
	current, err := s.store.GetTransaction(ctx, id, userID)
	if err != nil {
		return core.Summary{}, err
	}
	if err := s.store.DeleteTransaction(ctx, id, userID); err != nil {
		return core.Summary{}, err
	}

	c, err := s.store.GetCycle(ctx, current.CycleID, userID)
	if err != nil {
		return core.Summary{}, err
	}
	res, err := s.finish(ctx, log.OpDelete, c, current)
	if err != nil {
		return core.Summary{}, err
	}
	return res.Summary, nil
}

// List returns the ledger of one of the user's cycles, optionally limited to
// a bucket, ordered by date then id. A cycle that is missing or owned by
// someone else has an empty ledger.
func (s *TransactionService) List(ctx context.Context, userID, cycleID int64, bucket *core.Bucket) ([]core.Transaction, error) {
	if bucket != nil {
		if err := bucket.Validate(); err != nil {
			return nil, err
		}
	}
	txns, err := s.store.ListTransactions(ctx, core.TransactionFilter{UserID: userID, CycleID: cycleID, Bucket: bucket})
	if err != nil {
		return nil, err
	}
	if txns == nil {
		txns = []core.Transaction{}
	}
	return txns, nil
}

func (s *TransactionService) finish(ctx context.Context, op string, c core.Cycle, t core.Transaction) (TransactionResult, error) {
	summary, err := summarize(ctx, s.store, c)
	if err != nil {
		return TransactionResult{}, err
	}

	s.events.LogTransactionRecorded(ctx, op, c.UserID, c.ID, t.ID, t.Bucket.String(), t.Amount.String())
	notify(ctx, s.publisher, s.logger, amqp.NewCycleChangedMessage(amqp.LedgerChanged, c.UserID, c.ID, c.MonthKey))

	return TransactionResult{Transaction: t, Summary: summary}, nil
}
