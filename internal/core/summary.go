package core

import "github.com/shopspring/decimal"

// BucketBalance is the allocated, used and remaining money of one bucket.
type BucketBalance struct {
	Allocated decimal.Decimal
	Used      decimal.Decimal
	Remaining decimal.Decimal
}

// Summary is the per-bucket balance of a cycle. It is derived and never stored.
type Summary struct {
	CycleID  int64
	MonthKey string
	Savings  BucketBalance
	Monthly  BucketBalance
	Wants    BucketBalance
}

// Get returns the balance of bucket b.
func (s Summary) Get(b Bucket) BucketBalance {
	switch b {
	case Savings:
		return s.Savings
	case Monthly:
		return s.Monthly
	case Wants:
		return s.Wants
	}
	return BucketBalance{}
}

// Summarize folds the transactions of cycle c into per-bucket balances.
// Transactions that belong to another cycle are ignored. The result depends
// only on the arguments: it is recomputed from the full ledger on every call.
func Summarize(c Cycle, txns []Transaction) Summary {
	used := map[Bucket]decimal.Decimal{}
	for _, t := range txns {
		if t.CycleID != c.ID {
			continue
		}
		used[t.Bucket] = used[t.Bucket].Add(t.Amount)
	}

	balance := func(b Bucket) BucketBalance {
		allocated := c.Allocation.Get(b)
		u := used[b]
		return BucketBalance{
			Allocated: allocated,
			Used:      u,
			Remaining: allocated.Sub(u),
		}
	}

	return Summary{
		CycleID:  c.ID,
		MonthKey: c.MonthKey,
		Savings:  balance(Savings),
		Monthly:  balance(Monthly),
		Wants:    balance(Wants),
	}
}
