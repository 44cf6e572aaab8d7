// Package money holds amounts as integer minor units (cents). Decimal text is only
// produced or accepted at the boundary.
package money

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/household-ledger/internal"
)

// Money is an amount in cents.
type Money int64

// Zero is the zero amount.
const Zero Money = 0

// MaxCents bounds the magnitude of any amount accepted at the boundary
// (100,000,000,000.00). Sums of bounded amounts stay far from int64 overflow.
const MaxCents int64 = 10_000_000_000_000

// Sign marks which side of the ledger a magnitude sits on.
type Sign string

const (
	// SignPositive means the member is owed the amount.
	SignPositive Sign = "+"
	// SignNegative means the member owes the amount.
	SignNegative Sign = "-"
)

func (s Sign) Valid() bool {
	return s == SignPositive || s == SignNegative
}

func FromCents(cents int64) Money {
	return Money(cents)
}

// Parse reads a decimal string such as "12.50". More than two significant
// fraction digits is rejected rather than rounded.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a decimal amount", internal.ErrInvalidArgument, s)
	}
	return FromDecimal(d)
}

func FromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(2)) {
		return 0, fmt.Errorf("%w: %s has more than 2 fraction digits", internal.ErrInvalidArgument, d.String())
	}
	cents := d.Shift(2)
	if cents.Abs().GreaterThan(decimal.NewFromInt(MaxCents)) {
		return 0, fmt.Errorf("%w: %s exceeds the largest supported amount", internal.ErrInvalidArgument, d.String())
	}
	return Money(cents.IntPart()), nil
}

func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Cents() int64 {
	return int64(m)
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// String always renders exactly two fraction digits.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) IsPositive() bool {
	return m > 0
}

func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

func Min(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Sum adds amounts in cents.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

// Signed folds a magnitude and a sign into signed cents.
func Signed(sum Money, sign Sign) int64 {
	if sign == SignNegative {
		return -int64(sum.Abs())
	}
	return int64(sum.Abs())
}

// FromSigned splits signed cents into magnitude and sign. Zero is always +0.
func FromSigned(cents int64) (Money, Sign) {
	if cents < 0 {
		return Money(-cents), SignNegative
	}
	return Money(cents), SignPositive
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts "12.50" or 12.50. Numbers are parsed from their literal
// text, never through float64.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	}

	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
