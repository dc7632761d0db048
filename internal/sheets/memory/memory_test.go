package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func export(t *testing.T, username, monthKey string) core.CycleExport {
	t.Helper()
	c, err := core.NewCycle(1, core.CycleInput{
		MonthKey: monthKey,
		Salary:   decimal.NewFromInt(1000),
		Percentages: core.Percentages{
			Savings: decimal.NewFromInt(10),
			Monthly: decimal.NewFromInt(60),
			Wants:   decimal.NewFromInt(30),
		},
	})
	require.NoError(t, err)
	return core.NewCycleExport(username, c, nil)
}

func TestStore_WriteAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	ref, err := s.WriteCycle(ctx, export(t, "alice", "2025-02"))
	require.NoError(t, err)
	assert.Equal(t, "'alice 2025-02'!A1:E8", ref)

	_, err = s.WriteCycle(ctx, export(t, "alice", "2025-01"))
	require.NoError(t, err)
	assert.Equal(t, []string{"alice 2025-01", "alice 2025-02"}, s.Tabs())

	rows, ok := s.Tab("alice 2025-02")
	require.True(t, ok)
	assert.Equal(t, []string{"Cycle", "2025-02", "Salary", "1000.00"}, rows[0])

	require.NoError(t, s.DeleteCycle(ctx, "alice", "2025-02"))
	_, ok = s.Tab("alice 2025-02")
	assert.False(t, ok)

	// Deleting a missing tab is a no-op.
	require.NoError(t, s.DeleteCycle(ctx, "alice", "2025-02"))
	assert.Equal(t, []string{"alice 2025-01"}, s.Tabs())
}

func TestStore_TabReturnsCopy(t *testing.T) {
	s := New()
	_, err := s.WriteCycle(context.Background(), export(t, "bob", "2025-03"))
	require.NoError(t, err)

	rows, _ := s.Tab("bob 2025-03")
	rows[0][0] = "changed"

	again, _ := s.Tab("bob 2025-03")
	assert.Equal(t, "Cycle", again[0][0])
}
