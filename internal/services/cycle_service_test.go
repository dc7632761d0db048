package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/amqp"
	"budget/internal/core"
)

func TestCycleService_UpsertAllocates(t *testing.T) {
	f := newFixture(t)
	c := f.cycle(t, f.alice.ID, "2025-01", "30000")

	assert.True(t, c.Allocation.Savings.Equal(dec("9000")))
	assert.True(t, c.Allocation.Monthly.Equal(dec("15000")))
	assert.True(t, c.Allocation.Wants.Equal(dec("6000")))
	assert.Equal(t, []amqp.ChangeKind{amqp.CycleUpserted}, f.pub.kinds())
}

func TestCycleService_UpsertIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.cycle(t, f.alice.ID, "2025-01", "30000")
	second := f.cycle(t, f.alice.ID, "2025-01", "30000")
	assert.Equal(t, first.ID, second.ID)

	cycles, err := f.cycles.List(ctx, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.True(t, cycles[0].Salary.Equal(dec("30000")))
}

func TestCycleService_UpsertRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   core.CycleInput
		want error
	}{
		{"sum 99", core.CycleInput{MonthKey: "2025-01", Salary: dec("1000"),
			Percentages: core.Percentages{Savings: dec("30"), Monthly: dec("50"), Wants: dec("19")}}, core.ErrSumMismatch},
		{"sum 101", core.CycleInput{MonthKey: "2025-01", Salary: dec("1000"),
			Percentages: core.Percentages{Savings: dec("30"), Monthly: dec("50"), Wants: dec("21")}}, core.ErrSumMismatch},
		{"bad month", standardInput("2025-1", "1000"), core.ErrBadFormat},
		{"zero salary", standardInput("2025-01", "0"), core.ErrNotPositive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.cycles.Upsert(ctx, f.alice.ID, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	ok := core.CycleInput{MonthKey: "2025-01", Salary: dec("1000"),
		Percentages: core.Percentages{Savings: dec("33.33"), Monthly: dec("33.34"), Wants: dec("33.33")}}
	_, err := f.cycles.Upsert(ctx, f.alice.ID, ok)
	assert.NoError(t, err)
	assert.Len(t, f.pub.kinds(), 1, "rejected upserts publish nothing")
}

func TestCycleService_UpdateSalaryOnly(t *testing.T) {
	f := newFixture(t)
	c := f.cycle(t, f.alice.ID, "2025-01", "30000")

	got, err := f.cycles.Update(context.Background(), c.ID, f.alice.ID, core.CyclePatch{Salary: ptr(dec("40000"))})
	require.NoError(t, err)

	assert.True(t, got.Allocation.Savings.Equal(dec("12000")))
	assert.True(t, got.Allocation.Monthly.Equal(dec("20000")))
	assert.True(t, got.Allocation.Wants.Equal(dec("8000")))
	assert.Equal(t, []amqp.ChangeKind{amqp.CycleUpserted, amqp.CycleUpdated}, f.pub.kinds())
}

func TestCycleService_UpdateRevalidatesMergedPercentages(t *testing.T) {
	f := newFixture(t)
	c := f.cycle(t, f.alice.ID, "2025-01", "30000")

	_, err := f.cycles.Update(context.Background(), c.ID, f.alice.ID, core.CyclePatch{PctSavings: ptr(dec("40"))})
	assert.ErrorIs(t, err, core.ErrSumMismatch)

	stored, err := f.cycles.Get(context.Background(), c.ID, f.alice.ID)
	require.NoError(t, err)
	assert.True(t, stored.Percentages.Savings.Equal(dec("30")), "failed update must not persist")
}

func TestCycleService_EmptyPatchIsNoop(t *testing.T) {
	f := newFixture(t)
	c := f.cycle(t, f.alice.ID, "2025-01", "30000")

	got, err := f.cycles.Update(context.Background(), c.ID, f.alice.ID, core.CyclePatch{})
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Len(t, f.pub.kinds(), 1)
}

func TestCycleService_CrossUserIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cycle(t, f.alice.ID, "2025-01", "30000")

	_, err := f.cycles.Get(ctx, c.ID, f.bob.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.cycles.Update(ctx, c.ID, f.bob.ID, core.CyclePatch{Salary: ptr(dec("1"))})
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, f.cycles.Delete(ctx, c.ID, f.bob.ID), core.ErrNotFound)
	_, err = f.cycles.Summary(ctx, c.ID, f.bob.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	bobs, err := f.cycles.List(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Empty(t, bobs)
}

func TestCycleService_DeleteCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.cycle(t, f.alice.ID, "2025-01", "30000")
	tx := f.spend(t, c, core.Wants, 3, "10").Transaction

	require.NoError(t, f.cycles.Delete(ctx, c.ID, f.alice.ID))

	_, err := f.cycles.Get(ctx, c.ID, f.alice.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = f.store.GetTransaction(ctx, tx.ID, f.alice.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	left, err := f.txns.List(ctx, f.alice.ID, c.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, left)

	kinds := f.pub.kinds()
	assert.Equal(t, amqp.CycleDeleted, kinds[len(kinds)-1])
}

func TestCycleService_SummaryEmptyLedger(t *testing.T) {
	f := newFixture(t)
	c := f.cycle(t, f.alice.ID, "2025-01", "30000")

	s, err := f.cycles.Summary(context.Background(), c.ID, f.alice.ID)
	require.NoError(t, err)
	for _, b := range core.Buckets() {
		assert.True(t, s.Get(b).Used.IsZero())
		assert.True(t, s.Get(b).Remaining.Equal(c.Allocation.Get(b)))
	}
}

func TestCycleService_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.pub.err = errBrokerDown

	_, err := f.cycles.Upsert(context.Background(), f.alice.ID, standardInput("2025-01", "100"))
	assert.NoError(t, err)
}

func TestCycleService_NilPublisher(t *testing.T) {
	f := newFixture(t)
	svc := NewCycleService(f.store, nil, quietLogger())

	_, err := svc.Upsert(context.Background(), f.alice.ID, standardInput("2025-01", "100"))
	assert.NoError(t, err)
}
