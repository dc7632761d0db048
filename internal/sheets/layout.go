package sheets

import (
	"fmt"
	"strings"

	"budget/internal/core"
)

// LedgerHeader is the header row above the transaction rows of a tab.
var LedgerHeader = []string{"Date", "Bucket", "Note", "Amount"}

var summaryHeader = []string{"Bucket", "Percent", "Allocated", "Used", "Remaining"}

// TabName names the tab holding one user's cycle.
func TabName(username, monthKey string) string {
	return strings.TrimSpace(username) + " " + monthKey
}

// Render lays out an export as rows of cells: a title row, the per-bucket
// summary block, a blank row, then the ledger ordered by date.
func Render(e core.CycleExport) [][]string {
	c := e.Cycle
	rows := make([][]string, 0, 8+len(e.Transactions))
	rows = append(rows,
		[]string{"Cycle", c.MonthKey, "Salary", core.FormatAmount(c.Salary)},
		nil,
		summaryHeader,
	)
	for _, b := range core.Buckets() {
		bal := e.Summary.Get(b)
		rows = append(rows, []string{
			b.String(),
			c.Percentages.Get(b).String(),
			core.FormatAmount(bal.Allocated),
			core.FormatAmount(bal.Used),
			core.FormatAmount(bal.Remaining),
		})
	}
	rows = append(rows, nil, LedgerHeader)
	for _, t := range e.Transactions {
		rows = append(rows, []string{t.Date.String(), t.Bucket.String(), t.Note, core.FormatAmount(t.Amount)})
	}
	return rows
}

// Width is the number of columns Render can fill.
func Width() int {
	return len(summaryHeader)
}

// ColumnName converts a 1-based column index to its A1 letter.
func ColumnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// RangeRef is the A1 range covered by rows on tab.
func RangeRef(tab string, rows int) string {
	if rows < 1 {
		rows = 1
	}
	return fmt.Sprintf("'%s'!A1:%s%d", tab, ColumnName(Width()), rows)
}
