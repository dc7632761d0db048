package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"budget/internal/core"
	"budget/internal/log"
)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	// Interval is how often every cycle is re-exported (default: 15m)
	Interval time.Duration
}

func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{Interval: 15 * time.Minute}
}

// CycleCatalog enumerates every cycle known to the store.
type CycleCatalog interface {
	ListUsers(ctx context.Context) ([]core.User, error)
	ListCycles(ctx context.Context, userID int64) ([]core.Cycle, error)
}

// ReconcileStats summarizes one reconciliation pass.
type ReconcileStats struct {
	Cycles int
	Synced int
	Errors int
}

// Reconciler periodically re-exports every cycle so sheets converge even
// when change messages were lost or the worker was down.
type Reconciler struct {
	catalog CycleCatalog
	worker  *ExportWorker
	config  ReconcilerConfig
	logger  *log.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReconciler(catalog CycleCatalog, worker *ExportWorker, config ReconcilerConfig, logger *log.Logger) *Reconciler {
	if config.Interval <= 0 {
		config.Interval = DefaultReconcilerConfig().Interval
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Reconciler{
		catalog: catalog,
		worker:  worker,
		config:  config,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// Start begins the reconciliation loop. Returns an error if already running.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reconciler is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	r.logger.InfoContext(ctx, "Reconciler started", "interval", r.config.Interval)
	return nil
}

// Stop signals the loop and waits for the current pass to finish.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		r.logger.InfoContext(ctx, "Reconciler stopped gracefully")
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Reconciler stop timed out")
		return ctx.Err()
	}

	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return nil
}

func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Reconciler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Reconcile immediately on startup
	r.pass(ctx)

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Reconciler) pass(ctx context.Context) {
	if _, err := r.ReconcileOnce(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Reconciliation failed", log.FieldError, err)
	}
}

// ReconcileOnce exports every cycle of every user. Per-cycle failures are
// counted and logged without aborting the pass.
func (r *Reconciler) ReconcileOnce(ctx context.Context) (ReconcileStats, error) {
	var stats ReconcileStats

	users, err := r.catalog.ListUsers(ctx)
	if err != nil {
		return stats, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		cycles, err := r.catalog.ListCycles(ctx, u.ID)
		if err != nil {
			return stats, fmt.Errorf("list cycles of user %d: %w", u.ID, err)
		}

		for _, c := range cycles {
			if r.stopping(ctx) {
				return stats, ctx.Err()
			}
			stats.Cycles++
			if err := r.worker.SyncCycle(ctx, u.ID, c.MonthKey); err != nil {
				stats.Errors++
				r.logger.ErrorContext(ctx, "Failed to reconcile cycle",
					log.NewFields().WithError(err).WithUser(u.ID).WithCycle(c.ID, c.MonthKey).ToSlice()...)
				continue
			}
			stats.Synced++
		}
	}

	r.logger.InfoContext(ctx, "Reconciliation completed",
		"cycles", stats.Cycles,
		"synced", stats.Synced,
		"errors", stats.Errors)
	return stats, nil
}

func (r *Reconciler) stopping(ctx context.Context) bool {
	r.mu.Lock()
	stopCh := r.stopCh
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return true
	case <-stopCh:
		return true
	default:
		return false
	}
}
