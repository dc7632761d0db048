package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Bounds on every amount, salary and percentage the ledger accepts.
const (
	MaxIntegerDigits  = 15
	MaxFractionDigits = 10

	maxNumberLength = 64
)

// ParseDecimal parses a decimal string, accepting both dot (12.34) and
// comma (12,34) decimal separators. NaN, infinities and anything else that is
// not a plain number are rejected with ErrBadFormat, as is any value outside
// the CheckMagnitude band. The sign is preserved; range checks are left to the
// Validate* functions.
//
// Examples:
//
//	ParseDecimal("12.34")  -> 12.34, nil
//	ParseDecimal("12,34")  -> 12.34, nil
//	ParseDecimal(" 7 ")    -> 7, nil
//	ParseDecimal("abc")    -> 0, ErrBadFormat
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty number", ErrBadFormat)
	}
	if len(s) > maxNumberLength {
		return decimal.Zero, fmt.Errorf("%w: number longer than %d characters", ErrBadFormat, maxNumberLength)
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, fmt.Errorf("%w: number %q", ErrBadFormat, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: number %q", ErrBadFormat, s)
	}
	if err := CheckMagnitude(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// CheckMagnitude rejects values with more than MaxIntegerDigits integer
// digits or more than MaxFractionDigits written fractional digits. The
// exponent is checked before the coefficient is touched, so a value like
// 1e2000000000 is refused without being expanded.
func CheckMagnitude(d decimal.Decimal) error {
	exp := d.Exponent()
	if exp < -MaxFractionDigits {
		return fmt.Errorf("%w: more than %d fractional digits", ErrBadFormat, MaxFractionDigits)
	}
	if exp > MaxIntegerDigits {
		return fmt.Errorf("%w: more than %d integer digits", ErrBadFormat, MaxIntegerDigits)
	}
	if d.IsZero() {
		return nil
	}
	if d.NumDigits()+int(exp) > MaxIntegerDigits {
		return fmt.Errorf("%w: more than %d integer digits", ErrBadFormat, MaxIntegerDigits)
	}
	return nil
}

// ParseAmount parses a transaction amount and requires it to be positive.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// FormatAmount renders an amount with two decimal places for display and
// export. It is the only place presentation rounding happens.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
