package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/amqp"
	"budget/internal/core"
)

func TestTransactionService_CreateReturnsFreshSummary(t *testing.T) {
	f := newFixture(t)
	c := f.cycle(t, f.alice.ID, "2025-01", "30000")

	res := f.spend(t, c, core.Wants, 5, "2000")

	assert.NotZero(t, res.Transaction.ID)
	assert.Equal(t, c.ID, res.Transaction.CycleID)
	assert.True(t, res.Summary.Wants.Allocated.Equal(dec("6000")))
	assert.True(t, res.Summary.Wants.Used.Equal(dec("2000")))
	assert.True(t, res.Summary.Wants.Remaining.Equal(dec("4000")))
	assert.True(t, res.Summary.Savings.Remaining.Equal(dec("9000")))
	assert.Equal(t, amqp.LedgerChanged, f.pub.kinds()[len(f.pub.kinds())-1])
}

func TestTransactionService_SummaryIsRecomputed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cycle(t, f.alice.ID, "2025-01", "30000")

	first := f.spend(t, c, core.Wants, 1, "100")
	second := f.spend(t, c, core.Wants, 2, "50")
	assert.True(t, second.Summary.Wants.Used.Equal(dec("150")))

	moved, err := f.txns.Update(ctx, first.Transaction.ID, f.alice.ID, core.TransactionPatch{Bucket: ptr(core.Savings)})
	require.NoError(t, err)
	assert.True(t, moved.Summary.Wants.Used.Equal(dec("50")))
	assert.True(t, moved.Summary.Savings.Used.Equal(dec("100")))

	summary, err := f.txns.Delete(ctx, second.Transaction.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, summary.Wants.Used.IsZero())
	assert.True(t, summary.Wants.Remaining.Equal(dec("6000")))
}

func TestTransactionService_Overspend(t *testing.T) {
	f := newFixture(t)
	c := f.cycle(t, f.alice.ID, "2025-01", "1000")

	res := f.spend(t, c, core.Wants, 1, "250")
	assert.True(t, res.Summary.Wants.Remaining.Equal(dec("-50")))
}

func TestTransactionService_CreateValidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cycle(t, f.alice.ID, "2025-01", "1000")

	base := core.TransactionInput{CycleID: c.ID, Bucket: core.Wants, Date: core.NewDate(2025, 1, 1), Amount: dec("1")}

	bad := base
	bad.Amount = dec("0")
	_, err := f.txns.Create(ctx, f.alice.ID, bad)
	assert.ErrorIs(t, err, core.ErrNotPositive)

	bad = base
	bad.Bucket = "FUN"
	_, err = f.txns.Create(ctx, f.alice.ID, bad)
	assert.ErrorIs(t, err, core.ErrBadFormat)

	_, err = f.txns.Create(ctx, f.bob.ID, base)
	assert.ErrorIs(t, err, core.ErrNotFound, "cycle of another user")

	bad = base
	bad.CycleID = c.ID + 1000
	_, err = f.txns.Create(ctx, f.alice.ID, bad)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestTransactionService_CrossUserIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cycle(t, f.alice.ID, "2025-01", "1000")
	tx := f.spend(t, c, core.Monthly, 1, "10").Transaction

	_, err := f.txns.Update(ctx, tx.ID, f.bob.ID, core.TransactionPatch{Note: ptr("mine now")})
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.txns.Delete(ctx, tx.ID, f.bob.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	others, err := f.txns.List(ctx, f.bob.ID, c.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, others)
}

func TestTransactionService_UpdateRejectsBadPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cycle(t, f.alice.ID, "2025-01", "1000")
	tx := f.spend(t, c, core.Monthly, 1, "10").Transaction

	_, err := f.txns.Update(ctx, tx.ID, f.alice.ID, core.TransactionPatch{Amount: ptr(dec("-1"))})
	assert.ErrorIs(t, err, core.ErrNotPositive)

	stored, err := f.store.GetTransaction(ctx, tx.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(dec("10")))
}

func TestTransactionService_ListOrderAndFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cycle(t, f.alice.ID, "2025-01", "1000")

	late := f.spend(t, c, core.Wants, 20, "1").Transaction
	early := f.spend(t, c, core.Savings, 2, "1").Transaction
	sameDay := f.spend(t, c, core.Wants, 2, "1").Transaction

	all, err := f.txns.List(ctx, f.alice.ID, c.ID, nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{early.ID, sameDay.ID, late.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

	wants, err := f.txns.List(ctx, f.alice.ID, c.ID, ptr(core.Wants))
	require.NoError(t, err)
	assert.Len(t, wants, 2)

	monthly, err := f.txns.List(ctx, f.alice.ID, c.ID, ptr(core.Monthly))
	require.NoError(t, err)
	assert.NotNil(t, monthly)
	assert.Empty(t, monthly)

	_, err = f.txns.List(ctx, f.alice.ID, c.ID, ptr(core.Bucket("nope")))
	assert.ErrorIs(t, err, core.ErrBadFormat)
}
