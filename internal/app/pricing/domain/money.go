package domain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for stored prices.
const MoneyScale = 2

// Money represents a monetary value with exact decimal arithmetic.
// Money is an immutable value type; every operation returns a new Money.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{d: decimal.Zero}

// NewMoneyFromCents creates Money from an integer number of cents.
// Example: NewMoneyFromCents(660) represents 6.60
func NewMoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -MoneyScale)}
}

// ParseMoney parses a decimal string such as "6.60".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrMalformedPrice, s)
	}
	return Money{d: d}, nil
}

// MustParseMoney is ParseMoney that panics on malformed input. Intended for constants and tests.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromDecimal wraps a decimal value.
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d: d}
}

// NewMoneyFromRat converts a rational (as used by Spanner NUMERIC columns) to Money.
func NewMoneyFromRat(r *big.Rat) Money {
	if r == nil {
		return Zero
	}
	return Money{d: decimal.NewFromBigRat(r, 9)}
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal { return m.d }

// Rat returns the value as a big.Rat for storage.
func (m Money) Rat() *big.Rat { return m.d.Rat() }

// Add returns m + other.
func (m Money) Add(other Money) Money { return Money{d: m.d.Add(other.d)} }

// Sub returns m - other.
func (m Money) Sub(other Money) Money { return Money{d: m.d.Sub(other.d)} }

// SubDecimal returns m - amount.
func (m Money) SubDecimal(amount decimal.Decimal) Money { return Money{d: m.d.Sub(amount)} }

// AddDecimal returns m + amount.
func (m Money) AddDecimal(amount decimal.Decimal) Money { return Money{d: m.d.Add(amount)} }

// MulDecimal multiplies by a factor.
func (m Money) MulDecimal(factor decimal.Decimal) Money { return Money{d: m.d.Mul(factor)} }

// MulInt multiplies by an integer quantity.
func (m Money) MulInt(n int64) Money { return Money{d: m.d.Mul(decimal.NewFromInt(n))} }

// Round rounds half away from zero to MoneyScale digits.
func (m Money) Round() Money { return Money{d: m.d.Round(MoneyScale)} }

// Clamp constrains m into [min, max]: max with the floor first, then min with the ceiling.
func (m Money) Clamp(min, max Money) Money {
	return Money{d: decimal.Min(decimal.Max(m.d, min.d), max.d)}
}

// IsZero returns true if the money value is zero.
func (m Money) IsZero() bool { return m.d.IsZero() }

// IsNegative returns true if the money value is negative.
func (m Money) IsNegative() bool { return m.d.IsNegative() }

// IsPositive returns true if the money value is positive.
func (m Money) IsPositive() bool { return m.d.IsPositive() }

// Sign returns -1, 0 or 1.
func (m Money) Sign() int { return m.d.Sign() }

// LessThan returns true if m < other.
func (m Money) LessThan(other Money) bool { return m.d.LessThan(other.d) }

// GreaterThan returns true if m > other.
func (m Money) GreaterThan(other Money) bool { return m.d.GreaterThan(other.d) }

// Equals compares by value, so 6.6 equals 6.60.
func (m Money) Equals(other Money) bool { return m.d.Equal(other.d) }

// Float64 returns an approximate float64 representation (for display only, not calculations).
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// String returns the value with exactly two fractional digits.
func (m Money) String() string { return m.d.StringFixed(MoneyScale) }
