// Package core holds the domain types shared by every layer: money, calendar
// dates, transactions, categories and the derived reporting values.
//
// Amounts are exact decimals end to end. They are stored as text, summed with
// decimal arithmetic and serialized as plain numbers, so a value read back is
// always byte-for-byte the value that was written.
package core

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in whole currency units.
//
// The zero value is an amount of zero. Transaction amounts are always
// positive; the income/expense sign is carried by Kind, never by the value.
type Money struct {
	dec decimal.Decimal
}

// NewMoney wraps a decimal as Money.
func NewMoney(d decimal.Decimal) Money {
	return Money{dec: d}
}

// MoneyFromString parses a plain decimal string such as "123.45" or "5000000".
// Currency symbols, thousands separators and signs are not accepted.
func MoneyFromString(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return Money{dec: d}, nil
}

// MoneyFromInt converts a whole number of currency units.
func MoneyFromInt(n int64) Money {
	return Money{dec: decimal.NewFromInt(n)}
}

// ZeroMoney returns a zero amount.
func ZeroMoney() Money {
	return Money{}
}

// Add returns m + o exactly.
func (m Money) Add(o Money) Money {
	return Money{dec: m.dec.Add(o.dec)}
}

// Sub returns m - o exactly. The result may be negative.
func (m Money) Sub(o Money) Money {
	return Money{dec: m.dec.Sub(o.dec)}
}

// Equal reports whether two amounts are numerically equal.
func (m Money) Equal(o Money) bool {
	return m.dec.Equal(o.dec)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool {
	return m.dec.IsPositive()
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool {
	return m.dec.IsZero()
}

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool {
	return m.dec.IsNegative()
}

// Decimal exposes the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.dec
}

// Validate enforces the amount invariant for stored transactions.
func (m Money) Validate() error {
	if !m.dec.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// String renders the amount as a plain decimal: no currency symbol, no
// grouping, no zeros beyond what the value carries.
func (m Money) String() string {
	return m.dec.String()
}

// MarshalJSON emits the amount as a bare JSON number, not a string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.dec.String()), nil
}

// UnmarshalJSON accepts both a JSON number and a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, data)
	}
	m.dec = d
	return nil
}

// Value stores the amount as its exact text form.
func (m Money) Value() (driver.Value, error) {
	return m.dec.String(), nil
}

// Scan reads an amount back from its stored form.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("scan money %q: %w", v, err)
		}
		m.dec = d
		return nil
	case []byte:
		return m.Scan(string(v))
	case int64:
		m.dec = decimal.NewFromInt(v)
		return nil
	case nil:
		m.dec = decimal.Decimal{}
		return nil
	default:
		return fmt.Errorf("scan money: unsupported type %T", src)
	}
}
