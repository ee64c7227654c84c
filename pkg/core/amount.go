package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal quantity of money.
// On the wire it is a bare JSON number, never a quoted string.
type Amount struct {
	value decimal.Decimal
}

// NewAmount builds an Amount from an integer number of units.
func NewAmount(units int64) Amount {
	return Amount{value: decimal.NewFromInt(units)}
}

// NewAmountFromFloat builds an Amount from a float64.
func NewAmountFromFloat(f float64) Amount {
	return Amount{value: decimal.NewFromFloat(f)}
}

// ParseAmount parses a decimal string such as "12" or "0.25".
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{value: d}, nil
}

func (a Amount) Decimal() decimal.Decimal { return a.value }
func (a Amount) IsPositive() bool         { return a.value.IsPositive() }
func (a Amount) IsZero() bool             { return a.value.IsZero() }
func (a Amount) Equal(b Amount) bool      { return a.value.Equal(b.value) }
func (a Amount) Add(b Amount) Amount      { return Amount{value: a.value.Add(b.value)} }
func (a Amount) String() string           { return a.value.String() }

// MarshalJSON writes the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.value.String()), nil
}

// UnmarshalJSON accepts both bare and quoted numbers.
func (a *Amount) UnmarshalJSON(data []byte) error {
	return a.value.UnmarshalJSON(data)
}
