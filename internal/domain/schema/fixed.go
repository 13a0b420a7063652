package schema

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Dollars is a fixed-point dollar amount as sent by the venue (e.g. "0.5600").
type Dollars string

// Count is a fixed-point contract count as sent by the venue (e.g. "10.00").
type Count string

// Decimal parses the dollar amount.
func (d Dollars) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(d)))
}

// Cents converts the dollar amount to whole cents, truncating sub-cent precision.
func (d Dollars) Cents() (int64, error) {
	value, err := d.Decimal()
	if err != nil {
		return 0, err
	}
	return value.Shift(2).IntPart(), nil
}

// Decimal parses the contract count.
func (c Count) Decimal() (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(string(c)))
}

// DollarsFromCents renders a cent price with the venue's four-digit precision.
func DollarsFromCents(cents int64) Dollars {
	return Dollars(decimal.New(cents, -2).StringFixed(4))
}

// CountFromInt renders an integer contract count in fixed-point form.
func CountFromInt(n int64) Count {
	return Count(decimal.NewFromInt(n).StringFixed(2))
}
