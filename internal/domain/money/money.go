// Package money provides fixed-point currency amounts.
//
// Amounts are stored as integer minor units (cents for a two-decimal
// currency) so that totals, shares and balances add up exactly. Decimal
// strings are only produced at the edges, for display and JSON:
//
//	amt, err := money.Parse("133.33", money.DefaultCurrency) // 13333
//	amt.String(money.DefaultCurrency)                         // "133.33"
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when raw input is not a decimal number.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrDivisionByZero is returned when dividing an amount by zero parts.
var ErrDivisionByZero = errors.New("division by zero")

// MaxAmount bounds parsed amounts and totals so they survive a round trip
// through float64 (JSON numbers) without losing a minor unit.
const MaxAmount Amount = 1_000_000_000_000_000

var maxMinorUnits = decimal.NewFromInt(int64(MaxAmount))

// maxMinorDigits is the number of integer digits in MaxAmount.
const maxMinorDigits = 16

// maxQuoted caps how much of a rejected input is echoed in an error.
const maxQuoted = 32

// Currency describes the precision amounts are kept at.
type Currency struct {
	Code     string `json:"code" yaml:"code" toml:"code"`
	Decimals int32  `json:"decimals" yaml:"decimals" toml:"decimals"`
}

// DefaultCurrency is a two-decimal currency.
var DefaultCurrency = Currency{Code: "USD", Decimals: 2}

// Validate checks that the currency precision is supported.
func (c Currency) Validate() error {
	if c.Decimals < 0 || c.Decimals > 4 {
		return fmt.Errorf("currency %q: decimals must be between 0 and 4, got %d", c.Code, c.Decimals)
	}
	return nil
}

// Epsilon is the smallest representable amount (one minor unit).
func (c Currency) Epsilon() decimal.Decimal {
	return decimal.New(1, -c.Decimals)
}

// Amount is a quantity of money in minor units.
type Amount int64

// Zero is the zero amount.
const Zero Amount = 0

// Parse converts user input into an Amount.
//
// Surrounding whitespace and a leading "$" are ignored. A single comma is
// accepted as the decimal separator when the input has no dot ("12,50").
// Values are rounded half away from zero to the currency precision.
func Parse(raw string, cur Currency) (Amount, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if s == "" {
		return Zero, fmt.Errorf("%w: empty input", ErrInvalidAmount)
	}
	if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 {
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, quote(raw))
	}
	amt, err := FromDecimal(d, cur)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, quote(raw))
	}
	return amt, nil
}

// Normalize parses raw input and coerces anything unusable to zero.
// Negative values are coerced as well. The second return value reports
// whether coercion happened.
func Normalize(raw string, cur Currency) (Amount, bool) {
	amt, err := Parse(raw, cur)
	if err != nil {
		return Zero, strings.TrimSpace(raw) != ""
	}
	if amt < 0 {
		return Zero, true
	}
	return amt, false
}

// FromDecimal rounds d to the currency precision.
//
// The exponent is checked before rounding: |d| < 10^(digits+exponent), so
// anything too large is rejected and anything below half a minor unit is
// zero without rescaling the coefficient.
func FromDecimal(d decimal.Decimal, cur Currency) (Amount, error) {
	if d.IsZero() {
		return Zero, nil
	}
	magnitude := int64(d.NumDigits()) + int64(d.Exponent()) + int64(cur.Decimals)
	if magnitude > maxMinorDigits {
		return Zero, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	if magnitude < 0 {
		return Zero, nil
	}

	minor := d.Shift(cur.Decimals).Round(0)
	if minor.Abs().GreaterThan(maxMinorUnits) {
		return Zero, fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}
	return Amount(minor.IntPart()), nil
}

// Add returns a+b, failing when the result leaves the supported range.
func Add(a, b Amount) (Amount, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) || sum > MaxAmount || sum < -MaxAmount {
		return Zero, fmt.Errorf("%w: total is out of range", ErrInvalidAmount)
	}
	return sum, nil
}

func quote(raw string) string {
	if len(raw) <= maxQuoted {
		return raw
	}
	return raw[:maxQuoted] + "…"
}

// FromFloat rounds f to the currency precision.
func FromFloat(f float64, cur Currency) (Amount, error) {
	return FromDecimal(decimal.NewFromFloat(f), cur)
}

// Decimal returns the amount in major units.
func (a Amount) Decimal(cur Currency) decimal.Decimal {
	return decimal.New(int64(a), -cur.Decimals)
}

// Float64 returns the amount in major units as a float, for JSON output.
func (a Amount) Float64(cur Currency) float64 {
	return a.Decimal(cur).InexactFloat64()
}

// String formats the amount with exactly cur.Decimals fraction digits.
func (a Amount) String(cur Currency) string {
	return a.Decimal(cur).StringFixed(cur.Decimals)
}

// Abs returns the magnitude of a.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}

// Sum adds amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}

// DivRound divides a into n parts, rounding half away from zero.
func DivRound(a Amount, n int) (Amount, error) {
	if n == 0 {
		return Zero, ErrDivisionByZero
	}
	q := decimal.NewFromInt(int64(a)).DivRound(decimal.NewFromInt(int64(n)), 0)
	return Amount(q.IntPart()), nil
}

// Split divides a non-negative total into n shares that sum exactly to
// total. The remainder is handed out one minor unit at a time to the
// first shares, so the result depends only on n and total.
func Split(total Amount, n int) ([]Amount, error) {
	if n <= 0 {
		return nil, ErrDivisionByZero
	}
	if total < 0 {
		return nil, fmt.Errorf("%w: cannot split negative total %d", ErrInvalidAmount, total)
	}

	base := total / Amount(n)
	remainder := int(total % Amount(n))

	shares := make([]Amount, n)
	for i := range shares {
		shares[i] = base
		if i < remainder {
			shares[i]++
		}
	}
	return shares, nil
}
