// Package money provides exact currency arithmetic for order and ledger amounts.
//
// Amounts are stored as decimals, never floats. Two amounts are considered
// equal when they differ by less than Epsilon (one cent).
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Epsilon is the comparison tolerance for monetary equality.
var Epsilon = decimal.New(1, -2)

// Money is a signed currency amount. The zero value is $0.00.
type Money struct {
	d decimal.Decimal
}

// Zero is $0.00.
var Zero = Money{}

// New wraps a decimal as Money.
func New(d decimal.Decimal) Money {
	return Money{d: d}
}

// FromCents builds an amount from an integer number of cents.
func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -2)}
}

// Parse converts report text such as "$1,234.56", "-$3.00" or "(3.00)" into Money.
// An empty string parses to zero.
func Parse(s string) (Money, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Zero, nil
	}
	if strings.Count(raw, "-") > 1 {
		return Zero, fmt.Errorf("invalid amount %q", s)
	}

	negative := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		negative = true
		raw = raw[1 : len(raw)-1]
	}
	if strings.HasPrefix(raw, "-") {
		negative = !negative
		raw = raw[1:]
	}
	raw = strings.TrimPrefix(raw, "$")
	if strings.HasPrefix(raw, "-") {
		negative = !negative
		raw = raw[1:]
	}
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Zero, fmt.Errorf("invalid amount %q", s)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if negative {
		d = d.Neg()
	}
	return Money{d: d}, nil
}

// MustParse is Parse for literals in tests and tables. It panics on bad input.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }
func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }
func (m Money) Neg() Money        { return Money{d: m.d.Neg()} }
func (m Money) Abs() Money        { return Money{d: m.d.Abs()} }

// Mul multiplies by an integer quantity.
func (m Money) Mul(n int64) Money { return Money{d: m.d.Mul(decimal.NewFromInt(n))} }

// Scale returns m * num / den rounded to whole cents.
func (m Money) Scale(num, den int64) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(num)).Div(decimal.NewFromInt(den)).Round(2)}
}

func (m Money) Cmp(o Money) int    { return m.d.Cmp(o.d) }
func (m Money) IsZero() bool       { return m.d.IsZero() }
func (m Money) IsNegative() bool   { return m.d.IsNegative() }
func (m Money) IsPositive() bool   { return m.d.IsPositive() }
func (m Money) Sign() int          { return m.d.Sign() }
func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

// WithinEpsilon reports whether |m - o| < Epsilon.
func (m Money) WithinEpsilon(o Money) bool {
	return m.d.Sub(o.d).Abs().LessThan(Epsilon)
}

// Cents rounds to the nearest cent and returns the integer count.
func (m Money) Cents() int64 {
	return m.d.Shift(2).Round(0).IntPart()
}

// Round returns the amount rounded half away from zero to whole cents.
func (m Money) Round() Money {
	return Money{d: m.d.Round(2)}
}

// Float64 is for display and legacy JSON columns only.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String renders "$12.34" or "-$12.34".
func (m Money) String() string {
	if m.d.IsNegative() {
		return "-$" + m.d.Neg().StringFixed(2)
	}
	return "$" + m.d.StringFixed(2)
}

// Plain renders the amount with two decimals and no currency symbol.
func (m Money) Plain() string {
	return m.d.StringFixed(2)
}

// MarshalJSON encodes the amount as a fixed two-decimal JSON string so plans
// serialize identically across runs.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.d.StringFixed(2))
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sum adds a list of amounts.
func Sum(amounts ...Money) Money {
	total := Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
