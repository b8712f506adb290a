package domain

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// CurrencyPrefix is printed before every formatted amount.
const CurrencyPrefix = "Rs"

var ErrInvalidAmount = errors.New("invalid amount")

// Money is an amount in minor units (paisa). 100 minor units make one rupee.
type Money int64

// ParseMoney reads a decimal amount in major units ("2500", "25.5").
// More than two fractional digits or a negative value is rejected.
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative %s", ErrInvalidAmount, d.String())
	}
	minor := d.Shift(2)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: %s has sub-paisa precision", ErrInvalidAmount, d.String())
	}
	return Money(minor.IntPart()), nil
}

// Rupees builds a Money from a whole number of major units.
func Rupees(n int64) Money { return Money(n * 100) }

// Minor returns the amount in minor units, the form payment gateways expect.
func (m Money) Minor() int64 { return int64(m) }

// Times multiplies by a quantity.
func (m Money) Times(q int) Money { return m * Money(q) }

func (m Money) Decimal() decimal.Decimal { return decimal.New(int64(m), -2) }

// Amount is the major-unit amount with exactly two decimals ("2500.00").
func (m Money) Amount() string { return m.Decimal().StringFixed(2) }

// String formats for display: "Rs 2500.00".
func (m Money) String() string { return CurrencyPrefix + " " + m.Amount() }

// MarshalJSON writes the major-unit amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Amount()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string in major units.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	v, err := ParseMoney(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
