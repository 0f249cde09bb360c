package ledger

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MinorUnitScale is the number of decimal places stored in the database.
const MinorUnitScale = 2

var (
	maxMinor = decimal.NewFromInt(math.MaxInt64)
	minMinor = decimal.NewFromInt(math.MinInt64)
)

// ToMinor converts an amount to integer minor units (cents).
// It fails when the amount has more precision than MinorUnitScale or does
// not fit in an int64 once shifted.
func ToMinor(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(MinorUnitScale)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d, MinorUnitScale)
	}
	if shifted.GreaterThan(maxMinor) || shifted.LessThan(minMinor) {
		return 0, fmt.Errorf("%w: %s is out of range", ErrInvalidAmount, d)
	}
	return shifted.IntPart(), nil
}

// FromMinor converts integer minor units back to a decimal amount.
func FromMinor(v int64) decimal.Decimal {
	return decimal.New(v, -MinorUnitScale)
}

// ParseAmount parses a decimal string and checks it fits in minor units.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if _, err := ToMinor(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
