package core

import "github.com/shopspring/decimal"

// Allocate splits salary across the three buckets. Each share is computed
// independently as salary × pct shifted two places and left unrounded, so rounding error
// never migrates from one bucket into another.
func Allocate(salary decimal.Decimal, pct Percentages) Allocation {
	return Allocation{
		Savings: share(salary, pct.Savings),
		Monthly: share(salary, pct.Monthly),
		Wants:   share(salary, pct.Wants),
	}
}

func share(salary, pct decimal.Decimal) decimal.Decimal {
	return salary.Mul(pct).Shift(-2)
}

// NewCycle validates in and returns an unsaved cycle owned by userID with its
// allocation filled in.
func NewCycle(userID int64, in CycleInput) (Cycle, error) {
	if err := in.Validate(); err != nil {
		return Cycle{}, err
	}
	return Cycle{
		UserID:      userID,
		MonthKey:    in.MonthKey,
		Salary:      in.Salary,
		Percentages: in.Percentages,
		Allocation:  Allocate(in.Salary, in.Percentages),
	}, nil
}
