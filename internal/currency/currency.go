// Package currency maps ISO 4217 currency codes to their minor-unit precision
// and provides the decimal rounding primitive used by the allocation engine.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPrecision is used for currency codes not present in the table.
const DefaultPrecision = 2

// minorUnits maps a currency code to its number of decimal places.
// Only codes that deviate from the 2-decimal default need an entry,
// plus the common 2-decimal codes for documentation value.
var minorUnits = map[string]int{
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"CAD": 2,
	"AUD": 2,
	"SGD": 2,
	"INR": 2,
	"BRL": 2,
	"MXN": 2,
	"CHF": 2,

	// Zero-decimal currencies.
	"JPY": 0,
	"KRW": 0,
	"VND": 0,
	"IDR": 0,
	"CLP": 0,
	"ISK": 0,

	// Three-decimal currencies.
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
	"TND": 3,
	"JOD": 3,

	// Four-decimal currencies.
	"CLF": 4,
}

// Precision returns the number of decimal places for the given currency code.
// Unknown codes fall back to DefaultPrecision.
func Precision(code string) int {
	if p, ok := minorUnits[strings.ToUpper(code)]; ok {
		return p
	}
	return DefaultPrecision
}

// SmallestUnit returns the smallest representable amount in the given
// currency: 0.01 for USD, 1 for VND, 0.001 for KWD.
func SmallestUnit(code string) decimal.Decimal {
	return decimal.New(1, -int32(Precision(code)))
}
