package storage

import (
	"context"

	"budget/internal/core"
)

// Ports implemented by every persistence backend. Lookups scoped by user
// return core.ErrNotFound both for missing rows and for rows owned by
// someone else.
type (
	UserStore interface {
		// CreateUser inserts a new user; core.ErrConflict when the name is taken.
		CreateUser(ctx context.Context, username string) (core.User, error)
		GetUser(ctx context.Context, id int64) (core.User, error)
		GetUserByUsername(ctx context.Context, username string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
	}

	CycleStore interface {
		// UpsertCycle inserts c, or replaces the numeric fields of the
		// existing cycle with the same user and month key.
		UpsertCycle(ctx context.Context, c core.Cycle) (core.Cycle, error)
		GetCycle(ctx context.Context, id, userID int64) (core.Cycle, error)
		GetCycleByMonth(ctx context.Context, userID int64, monthKey string) (core.Cycle, error)
		// UpdateCycle persists salary, percentages and allocations of c.
		UpdateCycle(ctx context.Context, c core.Cycle) (core.Cycle, error)
		// DeleteCycle removes the cycle and all of its transactions atomically.
		DeleteCycle(ctx context.Context, id, userID int64) error
		// ListCycles returns the user's cycles, most recent month first.
		ListCycles(ctx context.Context, userID int64) ([]core.Cycle, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id, userID int64) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id, userID int64) error
		// ListTransactions returns matching rows by date, then id.
		ListTransactions(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
	}

	// Store is the full persistence surface used by the services.
	Store interface {
		UserStore
		CycleStore
		TransactionStore
		Ping(ctx context.Context) error
		Close() error
	}
)
