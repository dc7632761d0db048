package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Savings Bucket = "SAVINGS"
	Monthly Bucket = "MONTHLY"
	Wants   Bucket = "WANTS"
)

// DateLayout is the wire and storage layout of transaction dates.
const DateLayout = "2006-01-02"

type (
	// Bucket is one of the three spending categories of a cycle.
	Bucket string

	Date struct {
		time.Time
	}

	User struct {
		ID       int64
		Username string
	}

	// Percentages is the three-way split of a cycle's salary.
	Percentages struct {
		Savings decimal.Decimal
		Monthly decimal.Decimal
		Wants   decimal.Decimal
	}

	// Allocation holds the money assigned to each bucket.
	Allocation struct {
		Savings decimal.Decimal
		Monthly decimal.Decimal
		Wants   decimal.Decimal
	}

	// Cycle is one month's budget plan for a user.
	Cycle struct {
		ID          int64
		UserID      int64
		MonthKey    string
		Salary      decimal.Decimal
		Percentages Percentages
		Allocation  Allocation
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	Transaction struct {
		ID        int64
		UserID    int64
		CycleID   int64
		Bucket    Bucket
		Date      Date
		Note      string
		Amount    decimal.Decimal
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// CycleInput carries the full set of fields for an upsert.
	CycleInput struct {
		MonthKey    string
		Salary      decimal.Decimal
		Percentages Percentages
	}

	// CyclePatch carries the fields of a partial cycle update. Nil means unchanged.
	CyclePatch struct {
		Salary     *decimal.Decimal
		PctSavings *decimal.Decimal
		PctMonthly *decimal.Decimal
		PctWants   *decimal.Decimal
	}

	TransactionInput struct {
		CycleID int64
		Bucket  Bucket
		Date    Date
		Note    string
		Amount  decimal.Decimal
	}

	// TransactionPatch carries the fields of a partial transaction update.
	TransactionPatch struct {
		Bucket *Bucket
		Date   *Date
		Note   *string
		Amount *decimal.Decimal
	}

	// TransactionFilter selects a user's transactions in one cycle, optionally
	// restricted to a single bucket.
	TransactionFilter struct {
		UserID  int64
		CycleID int64
		Bucket  *Bucket
	}
)

// Error kinds returned by the ledger. Callers match them with errors.Is.
var (
	ErrBadFormat    = errors.New("bad format")
	ErrSumMismatch  = errors.New("percentages must sum to 100")
	ErrNotPositive  = errors.New("must be positive")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Buckets lists the buckets in presentation order.
func Buckets() []Bucket {
	return []Bucket{Savings, Monthly, Wants}
}

func (b Bucket) String() string {
	return string(b)
}

func (b Bucket) Validate() error {
	switch b {
	case Savings, Monthly, Wants:
		return nil
	default:
		return fmt.Errorf("%w: unknown bucket %q", ErrBadFormat, string(b))
	}
}

// ParseBucket matches s against the bucket names, ignoring case and surrounding spaces.
func ParseBucket(s string) (Bucket, error) {
	b := Bucket(strings.ToUpper(strings.TrimSpace(s)))
	if err := b.Validate(); err != nil {
		return "", err
	}
	return b, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrBadFormat, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrBadFormat)
	}
	return nil
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM-DD" and full RFC 3339 timestamps; the time of
// day is dropped.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if len(s) > len(DateLayout) {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			*d = NewDate(t.Year(), int(t.Month()), t.Day())
			return nil
		}
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Get returns the percentage of bucket b.
func (p Percentages) Get(b Bucket) decimal.Decimal {
	switch b {
	case Savings:
		return p.Savings
	case Monthly:
		return p.Monthly
	case Wants:
		return p.Wants
	}
	return decimal.Zero
}

// Get returns the allocation of bucket b.
func (a Allocation) Get(b Bucket) decimal.Decimal {
	switch b {
	case Savings:
		return a.Savings
	case Monthly:
		return a.Monthly
	case Wants:
		return a.Wants
	}
	return decimal.Zero
}

// Total is the sum of the three bucket allocations.
func (a Allocation) Total() decimal.Decimal {
	return a.Savings.Add(a.Monthly).Add(a.Wants)
}

func (in CycleInput) Validate() error {
	if err := ValidateMonthKey(in.MonthKey); err != nil {
		return err
	}
	if err := ValidateSalary(in.Salary); err != nil {
		return err
	}
	return in.Percentages.Validate()
}

// Apply merges the patch over c and returns the merged cycle with its
// allocation recomputed. c itself is not modified.
func (p CyclePatch) Apply(c Cycle) (Cycle, error) {
	merged := c
	if p.Salary != nil {
		merged.Salary = *p.Salary
	}
	if p.PctSavings != nil {
		merged.Percentages.Savings = *p.PctSavings
	}
	if p.PctMonthly != nil {
		merged.Percentages.Monthly = *p.PctMonthly
	}
	if p.PctWants != nil {
		merged.Percentages.Wants = *p.PctWants
	}
	if err := ValidateSalary(merged.Salary); err != nil {
		return Cycle{}, err
	}
	if err := merged.Percentages.Validate(); err != nil {
		return Cycle{}, err
	}
	merged.Allocation = Allocate(merged.Salary, merged.Percentages)
	return merged, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p CyclePatch) IsEmpty() bool {
	return p.Salary == nil && p.PctSavings == nil && p.PctMonthly == nil && p.PctWants == nil
}

func (in TransactionInput) Validate() error {
	if in.CycleID <= 0 {
		return fmt.Errorf("%w: cycle id must be positive", ErrBadFormat)
	}
	if err := in.Bucket.Validate(); err != nil {
		return err
	}
	if err := in.Date.Validate(); err != nil {
		return err
	}
	if err := ValidateNote(in.Note); err != nil {
		return err
	}
	return ValidateAmount(in.Amount)
}

// Apply merges the patch over t and validates the fields it touches.
func (p TransactionPatch) Apply(t Transaction) (Transaction, error) {
	merged := t
	if p.Bucket != nil {
		if err := p.Bucket.Validate(); err != nil {
			return Transaction{}, err
		}
		merged.Bucket = *p.Bucket
	}
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return Transaction{}, err
		}
		merged.Date = *p.Date
	}
	if p.Note != nil {
		if err := ValidateNote(*p.Note); err != nil {
			return Transaction{}, err
		}
		merged.Note = *p.Note
	}
	if p.Amount != nil {
		if err := ValidateAmount(*p.Amount); err != nil {
			return Transaction{}, err
		}
		merged.Amount = *p.Amount
	}
	return merged, nil
}
