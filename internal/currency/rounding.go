package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how a value is rounded to currency precision.
type RoundingMode string

const (
	// RoundHalfUp rounds 0.5 away from zero (the everyday rule).
	RoundHalfUp RoundingMode = "HALF_UP"
	// RoundHalfEven rounds ties to the nearest even digit (banker's rounding).
	RoundHalfEven RoundingMode = "HALF_EVEN"
	// RoundFloor rounds toward negative infinity.
	RoundFloor RoundingMode = "FLOOR"
	// RoundCeil rounds toward positive infinity.
	RoundCeil RoundingMode = "CEIL"
)

// Valid reports whether the mode is one of the supported rounding modes.
func (m RoundingMode) Valid() bool {
	switch m {
	case RoundHalfUp, RoundHalfEven, RoundFloor, RoundCeil:
		return true
	}
	return false
}

// Round rounds value to the given number of decimal places under the given
// mode. Unknown modes fall back to half-up so a misconfigured expense still
// produces a sane amount.
func Round(value decimal.Decimal, places int, mode RoundingMode) decimal.Decimal {
	switch mode {
	case RoundHalfEven:
		return value.RoundBank(int32(places))
	case RoundFloor:
		return value.RoundFloor(int32(places))
	case RoundCeil:
		return value.RoundCeil(int32(places))
	case RoundHalfUp:
		return value.Round(int32(places))
	default:
		return value.Round(int32(places))
	}
}

// ParseRoundingMode converts a stored string into a RoundingMode.
func ParseRoundingMode(s string) (RoundingMode, error) {
	m := RoundingMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown rounding mode: %q", s)
	}
	return m, nil
}
