package core

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{" 2.50 ", "2.5", true},
		{"-1", "-1", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"NaN", "", false},
		{"Inf", "", false},
		{"", "", false},
		{"999999999999999.9999999999", "999999999999999.9999999999", true},
		{"1e14", "100000000000000", true},
		{"1e20000000", "", false},
		{"1e-20000000", "", false},
		{"1e2000000000", "", false},
		{"1000000000000000", "", false},
		{"0.00000000001", "", false},
		{"1" + strings.Repeat("0", 80), "", false},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.True(t, got.Equal(d(tc.out)), "%q -> %s", tc.in, got)
		} else {
			assert.ErrorIs(t, err, ErrBadFormat, tc.in)
		}
	}
}

func TestCheckMagnitude(t *testing.T) {
	assert.NoError(t, CheckMagnitude(decimal.Zero))
	assert.NoError(t, CheckMagnitude(d("-123456789012345")))
	assert.NoError(t, CheckMagnitude(decimal.New(0, -10)))
	assert.ErrorIs(t, CheckMagnitude(decimal.New(1, 2000000000)), ErrBadFormat)
	assert.ErrorIs(t, CheckMagnitude(decimal.New(1, -2000000000)), ErrBadFormat)
	assert.ErrorIs(t, CheckMagnitude(d("-1234567890123456")), ErrBadFormat)
	assert.ErrorIs(t, CheckMagnitude(decimal.New(0, 16)), ErrBadFormat)
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("12,34")
	require.NoError(t, err)
	assert.Equal(t, "12.34", got.String())

	_, err = ParseAmount("0")
	assert.ErrorIs(t, err, ErrNotPositive)
	_, err = ParseAmount("-3")
	assert.ErrorIs(t, err, ErrNotPositive)
	_, err = ParseAmount("x")
	assert.ErrorIs(t, err, ErrBadFormat)
	_, err = ParseAmount("1e20000000")
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "6000.00", FormatAmount(d("6000")))
	assert.Equal(t, "3333.33", FormatAmount(d("3333.333")))
	assert.Equal(t, "-12.50", FormatAmount(d("-12.5")))
}
