// Package ped provides an exact fixed-point amount type for PED values.
//
// All monetary quantities in pedtrack flow through Amount. Floating point
// is never used for money: a session accumulates thousands of micro-valued
// loot entries and users notice when the return percentage drifts.
package ped

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is an exact PED value. The zero value is 0 PED and ready to use.
type Amount struct {
	d decimal.Decimal
}

// Zero returns a 0 PED amount.
func Zero() Amount {
	return Amount{}
}

// FromString parses a decimal string ("0.05", "12", "-1.2345") into an Amount.
func FromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid PED amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustParse is FromString for literals in fixtures and defaults.
// Panics on malformed input.
func MustParse(s string) Amount {
	a, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromInt returns n as an Amount.
func FromInt(n int64) Amount {
	return Amount{d: decimal.NewFromInt(n)}
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }
func (a Amount) Neg() Amount         { return Amount{d: a.d.Neg()} }

// MulInt returns a scaled by an integer count. Exact.
func (a Amount) MulInt(n int64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(n))}
}

// Mul returns a*b. Exact for terminating operands.
func (a Amount) Mul(b Amount) Amount { return Amount{d: a.d.Mul(b.d)} }

// Div returns a/b and false when b is zero. The quotient is computed at
// decimal's default precision; callers use it for derived statistics only,
// never to accumulate running totals.
func (a Amount) Div(b Amount) (Amount, bool) {
	if b.d.IsZero() {
		return Amount{}, false
	}
	return Amount{d: a.d.Div(b.d)}, true
}

// WithMarkup returns a*(1 + pct/100). Exact: pct/100 is a decimal shift.
func (a Amount) WithMarkup(pct Amount) Amount {
	factor := decimal.NewFromInt(1).Add(pct.d.Shift(-2))
	return Amount{d: a.d.Mul(factor)}
}

// Cmp returns -1, 0 or 1 comparing a to b.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) IsZero() bool     { return a.d.IsZero() }
func (a Amount) IsPositive() bool { return a.d.IsPositive() }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }

// String returns the canonical decimal form with no trailing zeros ("0.05").
func (a Amount) String() string {
	return a.d.String()
}

// Format renders the amount for display, e.g. "12.34 PED".
func (a Amount) Format() string {
	return a.d.StringFixed(2) + " PED"
}

// Percent renders the amount as a percentage with one decimal, e.g. "96.4%".
func (a Amount) Percent() string {
	return a.d.StringFixed(1) + "%"
}

// MarshalJSON encodes the amount as a JSON string to preserve exactness.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.d.String() + `"`), nil
}

// UnmarshalJSON accepts both string and bare-number encodings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid PED amount %s: %w", string(data), err)
	}
	a.d = d
	return nil
}
