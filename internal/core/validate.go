package core

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxNoteLength bounds the free-text note of a transaction, in characters.
const MaxNoteLength = 500

var (
	monthKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)
	usernamePattern = regexp.MustCompile(`^[\w.\-]{1,64}$`)

	hundred = decimal.NewFromInt(100)
)

// ValidateMonthKey checks the YYYY-MM format of a cycle key.
func ValidateMonthKey(k string) error {
	if !monthKeyPattern.MatchString(k) {
		return fmt.Errorf("%w: month key %q must be YYYY-MM", ErrBadFormat, k)
	}
	month, _ := strconv.Atoi(k[5:])
	if month < 1 || month > 12 {
		return fmt.Errorf("%w: month key %q has month out of range", ErrBadFormat, k)
	}
	return nil
}

// ValidateUsername allows 1-64 word characters, dots and hyphens.
func ValidateUsername(u string) error {
	if !usernamePattern.MatchString(u) {
		return fmt.Errorf("%w: invalid username", ErrBadFormat)
	}
	return nil
}

// ValidateAmount requires a strictly positive transaction amount within the
// CheckMagnitude band.
func ValidateAmount(a decimal.Decimal) error {
	if err := CheckMagnitude(a); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	if !a.IsPositive() {
		return fmt.Errorf("%w: amount %s", ErrNotPositive, a.String())
	}
	return nil
}

// ValidateSalary requires a strictly positive salary within the
// CheckMagnitude band.
func ValidateSalary(s decimal.Decimal) error {
	if err := CheckMagnitude(s); err != nil {
		return fmt.Errorf("salary: %w", err)
	}
	if !s.IsPositive() {
		return fmt.Errorf("%w: salary %s", ErrNotPositive, s.String())
	}
	return nil
}

func ValidateNote(n string) error {
	if utf8.RuneCountInString(n) > MaxNoteLength {
		return fmt.Errorf("%w: note longer than %d characters", ErrBadFormat, MaxNoteLength)
	}
	return nil
}

// ValidatePercentages checks that each percentage lies in [0,100] and that
// their sum, rounded to two decimal places, is exactly 100.
func ValidatePercentages(s, m, w decimal.Decimal) error {
	for _, p := range []struct {
		name  string
		value decimal.Decimal
	}{{"pctSavings", s}, {"pctMonthly", m}, {"pctWants", w}} {
		if err := CheckMagnitude(p.value); err != nil {
			return fmt.Errorf("%s: %w", p.name, err)
		}
		if p.value.IsNegative() || p.value.GreaterThan(hundred) {
			return fmt.Errorf("%w: %s=%s outside [0,100]", ErrBadFormat, p.name, p.value.String())
		}
	}
	sum := s.Add(m).Add(w).Round(2)
	if !sum.Equal(hundred) {
		return fmt.Errorf("%w: got %s", ErrSumMismatch, sum.StringFixed(2))
	}
	return nil
}

func (p Percentages) Validate() error {
	return ValidatePercentages(p.Savings, p.Monthly, p.Wants)
}
