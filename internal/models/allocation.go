package models

import (
	"github.com/shopspring/decimal"

	"github.com/tripledger/tripledger/internal/currency"
)

// RemainderDistribution picks which participant absorbs the leftover minor
// units after each rounded share is computed.
type RemainderDistribution string

const (
	// RemainderLargestShare gives the remainder to the participant with the
	// largest unrounded item subtotal (ties broken by smallest id).
	RemainderLargestShare RemainderDistribution = "LARGEST_SHARE"
	// RemainderPayer gives the remainder to the expense's payer.
	RemainderPayer RemainderDistribution = "PAYER"
	// RemainderFirstListed gives the remainder to the lexicographically
	// smallest participant id with any allocation.
	RemainderFirstListed RemainderDistribution = "FIRST_LISTED"
	// RemainderRandom picks pseudo-randomly but deterministically, seeded
	// from a stable hash of the expense id.
	RemainderRandom RemainderDistribution = "RANDOM"
)

// Valid reports whether the distribution is one of the defined modes.
func (d RemainderDistribution) Valid() bool {
	switch d {
	case RemainderLargestShare, RemainderPayer, RemainderFirstListed, RemainderRandom:
		return true
	}
	return false
}

// RoundingConfig controls how unrounded participant totals become
// currency-precise amounts.
type RoundingConfig struct {
	// Precision is the currency's number of decimal places.
	Precision int `json:"precision"`
	// Mode is the rounding rule applied to each participant independently.
	Mode currency.RoundingMode `json:"mode"`
	// RemainderDistribution assigns the reconciliation remainder.
	RemainderDistribution RemainderDistribution `json:"remainderDistribution"`
}

// AllocationRule wraps the rounding configuration for an itemized expense.
type AllocationRule struct {
	Rounding RoundingConfig `json:"rounding"`
}

// DefaultAllocationRule returns the rule used when the UI does not override
// it: half-up rounding at the currency's precision, remainder to the largest
// share.
func DefaultAllocationRule(currencyCode string) AllocationRule {
	return AllocationRule{
		Rounding: RoundingConfig{
			Precision:             currency.Precision(currencyCode),
			Mode:                  currency.RoundHalfUp,
			RemainderDistribution: RemainderLargestShare,
		},
	}
}

// Validate checks the rule's invariants.
func (r AllocationRule) Validate() error {
	if r.Rounding.Precision < 0 || r.Rounding.Precision > 4 {
		return Validationf("allocation", "precision must be in 0..4, got %d", r.Rounding.Precision)
	}
	if !r.Rounding.Mode.Valid() {
		return Validationf("allocation", "unknown rounding mode: %q", r.Rounding.Mode)
	}
	if !r.Rounding.RemainderDistribution.Valid() {
		return Validationf("allocation", "unknown remainder distribution: %q", r.Rounding.RemainderDistribution)
	}
	return nil
}

// ItemContribution is one audit row in a participant's breakdown: the share
// of a single line item they were allocated.
type ItemContribution struct {
	ItemID string          `json:"itemId"`
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// ParticipantBreakdown is the fully auditable per-person result of an
// itemized allocation. The named components always reconcile:
//
//	ItemSubtotal + TaxAllocated + TipAllocated + FeesAllocated +
//	DiscountsAllocated + RoundingAdjustment == Total
type ParticipantBreakdown struct {
	ItemSubtotal       decimal.Decimal    `json:"itemSubtotal"`
	TaxAllocated       decimal.Decimal    `json:"taxAllocated"`
	TipAllocated       decimal.Decimal    `json:"tipAllocated"`
	FeesAllocated      decimal.Decimal    `json:"feesAllocated"`
	DiscountsAllocated decimal.Decimal    `json:"discountsAllocated"` // zero or negative
	RoundingAdjustment decimal.Decimal    `json:"roundingAdjustment"`
	Total              decimal.Decimal    `json:"total"`
	Items              []ItemContribution `json:"items"`
}

// ComponentSum adds up the named components. It should equal Total; the
// engine asserts this as a data-integrity check.
func (b ParticipantBreakdown) ComponentSum() decimal.Decimal {
	return b.ItemSubtotal.
		Add(b.TaxAllocated).
		Add(b.TipAllocated).
		Add(b.FeesAllocated).
		Add(b.DiscountsAllocated).
		Add(b.RoundingAdjustment)
}
