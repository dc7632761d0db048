package sheets_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
	"budget/internal/sheets"
)

func sampleExport(t *testing.T) core.CycleExport {
	t.Helper()
	c, err := core.NewCycle(1, core.CycleInput{
		MonthKey: "2025-01",
		Salary:   decimal.RequireFromString("30000"),
		Percentages: core.Percentages{
			Savings: decimal.RequireFromString("30"),
			Monthly: decimal.RequireFromString("50"),
			Wants:   decimal.RequireFromString("20"),
		},
	})
	require.NoError(t, err)
	c.ID = 7
	txns := []core.Transaction{
		{ID: 2, CycleID: 7, Bucket: core.Wants, Date: core.NewDate(2025, 1, 9), Note: "concert", Amount: decimal.RequireFromString("2000")},
		{ID: 1, CycleID: 7, Bucket: core.Monthly, Date: core.NewDate(2025, 1, 3), Note: "rent", Amount: decimal.RequireFromString("12000.5")},
	}
	return core.NewCycleExport("alice", c, txns)
}

func TestTabName(t *testing.T) {
	assert.Equal(t, "alice 2025-01", sheets.TabName("alice", "2025-01"))
	assert.Equal(t, "bob 2024-12", sheets.TabName(" bob ", "2024-12"))
}

func TestRender(t *testing.T) {
	rows := sheets.Render(sampleExport(t))

	require.Len(t, rows, 10)
	assert.Equal(t, []string{"Cycle", "2025-01", "Salary", "30000.00"}, rows[0])
	assert.Empty(t, rows[1])
	assert.Equal(t, []string{"Bucket", "Percent", "Allocated", "Used", "Remaining"}, rows[2])
	assert.Equal(t, []string{"SAVINGS", "30", "9000.00", "0.00", "9000.00"}, rows[3])
	assert.Equal(t, []string{"MONTHLY", "50", "15000.00", "12000.50", "2999.50"}, rows[4])
	assert.Equal(t, []string{"WANTS", "20", "6000.00", "2000.00", "4000.00"}, rows[5])
	assert.Empty(t, rows[6])
	assert.Equal(t, sheets.LedgerHeader, rows[7])
	assert.Equal(t, []string{"2025-01-03", "MONTHLY", "rent", "12000.50"}, rows[8])
	assert.Equal(t, []string{"2025-01-09", "WANTS", "concert", "2000.00"}, rows[9])
}

func TestColumnName(t *testing.T) {
	for n, want := range map[int]string{1: "A", 5: "E", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA"} {
		assert.Equal(t, want, sheets.ColumnName(n), "column %d", n)
	}
}

func TestRangeRef(t *testing.T) {
	assert.Equal(t, "'alice 2025-01'!A1:E10", sheets.RangeRef("alice 2025-01", 10))
	assert.Equal(t, "'x'!A1:E1", sheets.RangeRef("x", 0))
}
