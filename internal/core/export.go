package core

import "sort"

// CycleExport is the read-only view handed to export renderers: the cycle,
// its summary and its ledger ordered by date.
type CycleExport struct {
	Username     string
	Cycle        Cycle
	Summary      Summary
	Transactions []Transaction
}

// NewCycleExport builds an export for c from txns. Transactions of other
// cycles are dropped and the rest sorted by date, ties broken by id.
func NewCycleExport(username string, c Cycle, txns []Transaction) CycleExport {
	own := make([]Transaction, 0, len(txns))
	for _, t := range txns {
		if t.CycleID == c.ID {
			own = append(own, t)
		}
	}
	SortTransactions(own)
	return CycleExport{
		Username:     username,
		Cycle:        c,
		Summary:      Summarize(c, own),
		Transactions: own,
	}
}

// ByBucket partitions the ledger by bucket, keeping date order inside each
// bucket.
func (e CycleExport) ByBucket() map[Bucket][]Transaction {
	out := make(map[Bucket][]Transaction, 3)
	for _, b := range Buckets() {
		out[b] = nil
	}
	for _, t := range e.Transactions {
		out[t.Bucket] = append(out[t.Bucket], t)
	}
	return out
}

// SortTransactions orders txns by date ascending, then id ascending.
func SortTransactions(txns []Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		if !txns[i].Date.Equal(txns[j].Date.Time) {
			return txns[i].Date.Before(txns[j].Date.Time)
		}
		return txns[i].ID < txns[j].ID
	})
}
