package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"budget/internal/amqp"
	"budget/internal/core"
	"budget/internal/log"
	"budget/internal/storage/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.CycleChangedMessage
	err  error
}

func (p *recordingPublisher) PublishCycleChanged(_ context.Context, msg *amqp.CycleChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) kinds() []amqp.ChangeKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.ChangeKind, 0, len(p.msgs))
	for _, m := range p.msgs {
		out = append(out, m.Kind)
	}
	return out
}

var errBrokerDown = errors.New("broker down")

type fixture struct {
	store  *memory.Store
	pub    *recordingPublisher
	cycles *CycleService
	txns   *TransactionService
	users  *UserService
	export *ExportService
	alice  core.User
	bob    core.User
}

func quietLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Output: io.Discard})
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	pub := &recordingPublisher{}
	logger := quietLogger()
	f := &fixture{
		store:  store,
		pub:    pub,
		cycles: NewCycleService(store, pub, logger),
		txns:   NewTransactionService(store, pub, logger),
		users:  NewUserService(store, time.Minute, logger),
		export: NewExportService(store),
	}
	var err error
	f.alice, err = f.users.Register(context.Background(), "alice")
	require.NoError(t, err)
	f.bob, err = f.users.Register(context.Background(), "bob")
	require.NoError(t, err)
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func standardInput(monthKey, salary string) core.CycleInput {
	return core.CycleInput{
		MonthKey:    monthKey,
		Salary:      dec(salary),
		Percentages: core.Percentages{Savings: dec("30"), Monthly: dec("50"), Wants: dec("20")},
	}
}

func (f *fixture) cycle(t *testing.T, userID int64, monthKey, salary string) core.Cycle {
	t.Helper()
	c, err := f.cycles.Upsert(context.Background(), userID, standardInput(monthKey, salary))
	require.NoError(t, err)
	return c
}

func (f *fixture) spend(t *testing.T, c core.Cycle, b core.Bucket, day int, amount string) TransactionResult {
	t.Helper()
	res, err := f.txns.Create(context.Background(), c.UserID, core.TransactionInput{
		CycleID: c.ID,
		Bucket:  b,
		Date:    core.NewDate(2025, 1, day),
		Note:    "spent",
		Amount:  dec(amount),
	})
	require.NoError(t, err)
	return res
}
