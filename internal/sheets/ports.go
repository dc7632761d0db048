package sheets

import (
	"context"

	"budget/internal/core"
)

// Ports for outbound export adapters.
type (
	// CycleWriter replaces the sheet of a cycle with a fresh export.
	CycleWriter interface {
		WriteCycle(ctx context.Context, e core.CycleExport) (ref string, err error)
	}

	// CycleDeleter removes the sheet of a deleted cycle. Deleting a sheet
	// that does not exist is not an error.
	CycleDeleter interface {
		DeleteCycle(ctx context.Context, username, monthKey string) error
	}

	// Sink is the full export port consumed by the worker.
	Sink interface {
		CycleWriter
		CycleDeleter
	}
)
