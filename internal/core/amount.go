// Package core provides the domain types of the finance calendar: calendar
// dates, transaction rules and their recurrence semantics, and amount
// parsing.
//
// This file contains amount parsing and formatting. Amounts are
// arbitrary-precision decimals so long balance walks never accumulate
// floating-point drift; rounding to two places happens only at display and
// export time.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a string cannot be read as a money
// amount.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount reads a money amount from loosely formatted external input.
//
// It tolerates currency symbols, thousands separators and surrounding
// whitespace, and understands both "-12.34" and the bank-export "(12.34)"
// convention for negative values.
//
// Examples:
//
//	ParseAmount("$1,234.56")  -> 1234.56
//	ParseAmount("(45.00)")    -> -45
//	ParseAmount("-12.3")      -> -12.3
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+':
			b.WriteRune(r)
		case r == ',', r == '$', r == '€', r == '£', r == ' ':
			// separators and currency markers carry no value
		default:
			return decimal.Zero, ErrInvalidAmount
		}
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// FormatAmount renders an amount with exactly two decimal places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
