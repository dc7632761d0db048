// Package storagetest holds the behaviour every storage.Store must share.
// Backends call Run from their own tests.
package storagetest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/storage"
)

// Run exercises newStore against the Store contract. newStore must return an
// empty store; cleanup is the caller's concern.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("upsert idempotent", func(t *testing.T) { testUpsertIdempotent(t, newStore(t)) })
	t.Run("cycles scoped by user", func(t *testing.T) { testCycleScope(t, newStore(t)) })
	t.Run("list cycles newest first", func(t *testing.T) { testListCycles(t, newStore(t)) })
	t.Run("update cycle", func(t *testing.T) { testUpdateCycle(t, newStore(t)) })
	t.Run("transactions ordered", func(t *testing.T) { testTransactionOrder(t, newStore(t)) })
	t.Run("transaction update and delete", func(t *testing.T) { testTransactionMutations(t, newStore(t)) })
	t.Run("cascade delete", func(t *testing.T) { testCascadeDelete(t, newStore(t)) })
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func mustUser(t *testing.T, s storage.Store, name string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), name)
	require.NoError(t, err)
	return u
}

func mustCycle(t *testing.T, s storage.Store, userID int64, monthKey, salary string) core.Cycle {
	t.Helper()
	c, err := core.NewCycle(userID, core.CycleInput{
		MonthKey:    monthKey,
		Salary:      dec(salary),
		Percentages: core.Percentages{Savings: dec("30"), Monthly: dec("50"), Wants: dec("20")},
	})
	require.NoError(t, err)
	saved, err := s.UpsertCycle(context.Background(), c)
	require.NoError(t, err)
	return saved
}

func mustTxn(t *testing.T, s storage.Store, c core.Cycle, b core.Bucket, date core.Date, amount string) core.Transaction {
	t.Helper()
	tx, err := s.CreateTransaction(context.Background(), core.Transaction{
		UserID:  c.UserID,
		CycleID: c.ID,
		Bucket:  b,
		Date:    date,
		Note:    "n",
		Amount:  dec(amount),
	})
	require.NoError(t, err)
	return tx
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	assert.NotZero(t, alice.ID)

	_, err := s.CreateUser(ctx, "alice")
	assert.ErrorIs(t, err, core.ErrConflict)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	got, err = s.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = s.GetUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)

	mustUser(t, s, "bob")
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
}

func testUpsertIdempotent(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")

	first := mustCycle(t, s, u.ID, "2025-01", "30000")
	second := mustCycle(t, s, u.ID, "2025-01", "30000")
	assert.Equal(t, first.ID, second.ID)

	third := mustCycle(t, s, u.ID, "2025-01", "40000")
	assert.Equal(t, first.ID, third.ID)
	assert.True(t, third.Salary.Equal(dec("40000")))
	assert.True(t, third.Allocation.Savings.Equal(dec("12000")))

	cycles, err := s.ListCycles(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.True(t, cycles[0].Allocation.Wants.Equal(dec("8000")))
}

func testCycleScope(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	c := mustCycle(t, s, alice.ID, "2025-02", "1000")
	bobs := mustCycle(t, s, bob.ID, "2025-02", "2000")
	assert.NotEqual(t, c.ID, bobs.ID)

	_, err := s.GetCycle(ctx, c.ID, bob.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteCycle(ctx, c.ID, bob.ID), core.ErrNotFound)

	got, err := s.GetCycleByMonth(ctx, alice.ID, "2025-02")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.True(t, got.Salary.Equal(dec("1000")))

	_, err = s.GetCycleByMonth(ctx, alice.ID, "1999-01")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testListCycles(t *testing.T, s storage.Store) {
	u := mustUser(t, s, "alice")
	for _, k := range []string{"2024-11", "2025-03", "2024-12", "2025-01"} {
		mustCycle(t, s, u.ID, k, "100")
	}
	cycles, err := s.ListCycles(context.Background(), u.ID)
	require.NoError(t, err)

	keys := make([]string, 0, len(cycles))
	for _, c := range cycles {
		keys = append(keys, c.MonthKey)
	}
	assert.Equal(t, []string{"2025-03", "2025-01", "2024-12", "2024-11"}, keys)
}

func testUpdateCycle(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")
	c := mustCycle(t, s, u.ID, "2025-04", "30000")

	salary := dec("40000")
	patched, err := core.CyclePatch{Salary: &salary}.Apply(c)
	require.NoError(t, err)
	saved, err := s.UpdateCycle(ctx, patched)
	require.NoError(t, err)
	assert.Equal(t, c.ID, saved.ID)
	assert.Equal(t, "2025-04", saved.MonthKey)
	assert.True(t, saved.Allocation.Monthly.Equal(dec("20000")))

	reloaded, err := s.GetCycle(ctx, c.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Salary.Equal(dec("40000")))
	assert.True(t, reloaded.Percentages.Wants.Equal(dec("20")))

	patched.UserID = u.ID + 100
	_, err = s.UpdateCycle(ctx, patched)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testTransactionOrder(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")
	c := mustCycle(t, s, u.ID, "2025-05", "1000")

	late := mustTxn(t, s, c, core.Wants, core.NewDate(2025, 5, 20), "1")
	earlyA := mustTxn(t, s, c, core.Savings, core.NewDate(2025, 5, 2), "2")
	earlyB := mustTxn(t, s, c, core.Wants, core.NewDate(2025, 5, 2), "3.33")

	all, err := s.ListTransactions(ctx, core.TransactionFilter{UserID: u.ID, CycleID: c.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{earlyA.ID, earlyB.ID, late.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})
	assert.True(t, all[1].Amount.Equal(dec("3.33")))
	assert.Equal(t, core.NewDate(2025, 5, 2), all[1].Date)

	wants := core.Wants
	only, err := s.ListTransactions(ctx, core.TransactionFilter{UserID: u.ID, CycleID: c.ID, Bucket: &wants})
	require.NoError(t, err)
	require.Len(t, only, 2)
	for _, tx := range only {
		assert.Equal(t, core.Wants, tx.Bucket)
	}

	none, err := s.ListTransactions(ctx, core.TransactionFilter{UserID: u.ID + 100, CycleID: c.ID})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testTransactionMutations(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")
	other := mustUser(t, s, "bob")
	c := mustCycle(t, s, u.ID, "2025-06", "1000")
	tx := mustTxn(t, s, c, core.Wants, core.NewDate(2025, 6, 1), "10")

	tx.Bucket = core.Monthly
	tx.Note = "rent share"
	tx.Amount = dec("12.5")
	saved, err := s.UpdateTransaction(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, core.Monthly, saved.Bucket)
	assert.Equal(t, "rent share", saved.Note)
	assert.Equal(t, c.ID, saved.CycleID)

	got, err := s.GetTransaction(ctx, tx.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(dec("12.5")))

	_, err = s.GetTransaction(ctx, tx.ID, other.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, tx.ID, other.ID), core.ErrNotFound)

	require.NoError(t, s.DeleteTransaction(ctx, tx.ID, u.ID))
	_, err = s.GetTransaction(ctx, tx.ID, u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteTransaction(ctx, tx.ID, u.ID), core.ErrNotFound)
}

func testCascadeDelete(t *testing.T, s storage.Store) {
	ctx := context.Background()
	u := mustUser(t, s, "alice")
	doomed := mustCycle(t, s, u.ID, "2025-07", "1000")
	kept := mustCycle(t, s, u.ID, "2025-08", "1000")

	t1 := mustTxn(t, s, doomed, core.Wants, core.NewDate(2025, 7, 1), "1")
	mustTxn(t, s, doomed, core.Savings, core.NewDate(2025, 7, 2), "2")
	survivor := mustTxn(t, s, kept, core.Wants, core.NewDate(2025, 8, 1), "3")

	require.NoError(t, s.DeleteCycle(ctx, doomed.ID, u.ID))

	_, err := s.GetCycle(ctx, doomed.ID, u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.GetTransaction(ctx, t1.ID, u.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	left, err := s.ListTransactions(ctx, core.TransactionFilter{UserID: u.ID, CycleID: doomed.ID})
	require.NoError(t, err)
	assert.Empty(t, left)

	still, err := s.GetTransaction(ctx, survivor.ID, u.ID)
	require.NoError(t, err)
	assert.Equal(t, kept.ID, still.CycleID)
}
