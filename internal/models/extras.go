package models

import (
	"github.com/shopspring/decimal"
)

// PercentBase names the subtotal a percentage-valued extra is computed
// against. The allocation engine evaluates each base from subtotals
// accumulated in strict pipeline order, so "post-tax" is only meaningful for
// extras applied after the tax step.
type PercentBase string

const (
	// BasePreTaxItems is the sum of raw item shares before any discount.
	BasePreTaxItems PercentBase = "PRE_TAX_ITEMS"
	// BaseTaxableItems sums only items flagged taxable.
	BaseTaxableItems PercentBase = "TAXABLE_ITEMS"
	// BaseServiceItems sums only items flagged service-chargeable.
	BaseServiceItems PercentBase = "SERVICE_ITEMS"
	// BasePostDiscountItems is item shares after discounts applied so far.
	BasePostDiscountItems PercentBase = "POST_DISCOUNT_ITEMS"
	// BasePostTax is the running subtotal including allocated tax.
	BasePostTax PercentBase = "POST_TAX"
	// BasePostFees is the running subtotal including tax and fees.
	BasePostFees PercentBase = "POST_FEES"
)

// Valid reports whether the base is one of the defined bases.
func (b PercentBase) Valid() bool {
	switch b {
	case BasePreTaxItems, BaseTaxableItems, BaseServiceItems, BasePostDiscountItems, BasePostTax, BasePostFees:
		return true
	}
	return false
}

// AbsoluteSplitMode says how a fixed-amount fee or discount is divided.
type AbsoluteSplitMode string

const (
	// SplitEvenAcrossParticipants divides the amount equally among every
	// participant with at least one assigned item.
	SplitEvenAcrossParticipants AbsoluteSplitMode = "EVEN"
	// SplitProportionalToItemSubtotals divides the amount in proportion to
	// each participant's current item subtotal.
	SplitProportionalToItemSubtotals AbsoluteSplitMode = "PROPORTIONAL"
)

// Valid reports whether the mode is one of the defined split modes.
func (m AbsoluteSplitMode) Valid() bool {
	return m == SplitEvenAcrossParticipants || m == SplitProportionalToItemSubtotals
}

// ChargeKind discriminates percent vs fixed-amount extras.
type ChargeKind string

const (
	ChargePercent ChargeKind = "PERCENT"
	ChargeAmount  ChargeKind = "AMOUNT"
)

var hundred = decimal.NewFromInt(100)

// Sanity thresholds above which a percentage is flagged for confirmation.
// Real-world tax rarely exceeds 30% and tips rarely exceed 50%; anything
// higher is more likely a typo than intent.
var (
	maxSaneTaxPercent = decimal.NewFromInt(30)
	maxSaneTipPercent = decimal.NewFromInt(50)
)

// Tax is either a percentage of a base or a fixed amount. Construct through
// PercentTax or AmountTax.
type Tax struct {
	Kind    ChargeKind      `json:"kind"`
	Percent decimal.Decimal `json:"percent,omitempty"`
	Base    PercentBase     `json:"base,omitempty"`
	Amount  decimal.Decimal `json:"amount,omitempty"`
}

// PercentTax builds a percentage tax against the given base.
func PercentTax(percent decimal.Decimal, base PercentBase) (*Tax, error) {
	if err := checkPercent("tax", percent); err != nil {
		return nil, err
	}
	if !base.Valid() {
		return nil, Validationf("tax", "unknown percent base: %q", base)
	}
	return &Tax{Kind: ChargePercent, Percent: percent, Base: base}, nil
}

// AmountTax builds a fixed-amount tax.
func AmountTax(amount decimal.Decimal) (*Tax, error) {
	if amount.IsNegative() {
		return nil, Validationf("tax", "amount cannot be negative, got %s", amount)
	}
	return &Tax{Kind: ChargeAmount, Amount: amount}, nil
}

// Tip is either a percentage of a base or a fixed amount. Construct through
// PercentTip or AmountTip.
type Tip struct {
	Kind    ChargeKind      `json:"kind"`
	Percent decimal.Decimal `json:"percent,omitempty"`
	Base    PercentBase     `json:"base,omitempty"`
	Amount  decimal.Decimal `json:"amount,omitempty"`
}

// PercentTip builds a percentage tip against the given base, frequently
// post-tax or post-fees.
func PercentTip(percent decimal.Decimal, base PercentBase) (*Tip, error) {
	if err := checkPercent("tip", percent); err != nil {
		return nil, err
	}
	if !base.Valid() {
		return nil, Validationf("tip", "unknown percent base: %q", base)
	}
	return &Tip{Kind: ChargePercent, Percent: percent, Base: base}, nil
}

// AmountTip builds a fixed-amount tip.
func AmountTip(amount decimal.Decimal) (*Tip, error) {
	if amount.IsNegative() {
		return nil, Validationf("tip", "amount cannot be negative, got %s", amount)
	}
	return &Tip{Kind: ChargeAmount, Amount: amount}, nil
}

// Fee is a named surcharge (service charge, delivery, booking fee).
type Fee struct {
	Name    string            `json:"name"`
	Kind    ChargeKind        `json:"kind"`
	Percent decimal.Decimal   `json:"percent,omitempty"`
	Base    PercentBase       `json:"base,omitempty"`
	Amount  decimal.Decimal   `json:"amount,omitempty"`
	Split   AbsoluteSplitMode `json:"split,omitempty"`
}

// PercentFee builds a percentage fee against the given base.
func PercentFee(name string, percent decimal.Decimal, base PercentBase) (Fee, error) {
	if err := checkPercent("fee", percent); err != nil {
		return Fee{}, err
	}
	if !base.Valid() {
		return Fee{}, Validationf("fee", "unknown percent base: %q", base)
	}
	return Fee{Name: name, Kind: ChargePercent, Percent: percent, Base: base}, nil
}

// AmountFee builds a fixed-amount fee divided per the given split mode.
func AmountFee(name string, amount decimal.Decimal, split AbsoluteSplitMode) (Fee, error) {
	if amount.IsNegative() {
		return Fee{}, Validationf("fee", "amount cannot be negative, got %s", amount)
	}
	if !split.Valid() {
		return Fee{}, Validationf("fee", "unknown split mode: %q", split)
	}
	return Fee{Name: name, Kind: ChargeAmount, Amount: amount, Split: split}, nil
}

// Discount is a named reduction. ApplyBeforeTax controls whether it is
// subtracted from subtotals before or after the tax step.
type Discount struct {
	Name           string            `json:"name"`
	Kind           ChargeKind        `json:"kind"`
	Percent        decimal.Decimal   `json:"percent,omitempty"`
	Base           PercentBase       `json:"base,omitempty"`
	Amount         decimal.Decimal   `json:"amount,omitempty"`
	Split          AbsoluteSplitMode `json:"split,omitempty"`
	ApplyBeforeTax bool              `json:"applyBeforeTax"`
}

// PercentDiscount builds a percentage discount against the given base.
func PercentDiscount(name string, percent decimal.Decimal, base PercentBase, beforeTax bool) (Discount, error) {
	if err := checkPercent("discount", percent); err != nil {
		return Discount{}, err
	}
	if !base.Valid() {
		return Discount{}, Validationf("discount", "unknown percent base: %q", base)
	}
	return Discount{Name: name, Kind: ChargePercent, Percent: percent, Base: base, ApplyBeforeTax: beforeTax}, nil
}

// AmountDiscount builds a fixed-amount discount divided per the given split mode.
func AmountDiscount(name string, amount decimal.Decimal, split AbsoluteSplitMode, beforeTax bool) (Discount, error) {
	if amount.IsNegative() {
		return Discount{}, Validationf("discount", "amount cannot be negative, got %s", amount)
	}
	if !split.Valid() {
		return Discount{}, Validationf("discount", "unknown split mode: %q", split)
	}
	return Discount{Name: name, Kind: ChargeAmount, Amount: amount, Split: split, ApplyBeforeTax: beforeTax}, nil
}

// Extras holds the receipt-level charges layered on top of line items.
type Extras struct {
	Tax       *Tax       `json:"tax,omitempty"`
	Tip       *Tip       `json:"tip,omitempty"`
	Fees      []Fee      `json:"fees,omitempty"`
	Discounts []Discount `json:"discounts,omitempty"`
}

// Validate checks extras decoded from storage or the wire, which bypass the
// factory functions.
func (e Extras) Validate() error {
	if e.Tax != nil {
		if err := validateCharge("tax", e.Tax.Kind, e.Tax.Percent, e.Tax.Base, e.Tax.Amount); err != nil {
			return err
		}
	}
	if e.Tip != nil {
		if err := validateCharge("tip", e.Tip.Kind, e.Tip.Percent, e.Tip.Base, e.Tip.Amount); err != nil {
			return err
		}
	}
	for _, f := range e.Fees {
		if err := validateCharge("fee "+f.Name, f.Kind, f.Percent, f.Base, f.Amount); err != nil {
			return err
		}
		if f.Kind == ChargeAmount && !f.Split.Valid() {
			return Validationf("fee "+f.Name, "unknown split mode: %q", f.Split)
		}
	}
	for _, d := range e.Discounts {
		if err := validateCharge("discount "+d.Name, d.Kind, d.Percent, d.Base, d.Amount); err != nil {
			return err
		}
		if d.Kind == ChargeAmount && !d.Split.Valid() {
			return Validationf("discount "+d.Name, "unknown split mode: %q", d.Split)
		}
	}
	return nil
}

// SanityWarnings returns non-blocking warnings for suspicious percentages.
// The UI should require explicit confirmation before proceeding.
func (e Extras) SanityWarnings() []Warning {
	var warnings []Warning
	if e.Tax != nil && e.Tax.Kind == ChargePercent && e.Tax.Percent.GreaterThan(maxSaneTaxPercent) {
		warnings = append(warnings, Warning{
			Field:   "tax",
			Message: "tax rate of " + e.Tax.Percent.String() + "% is unusually high",
		})
	}
	if e.Tip != nil && e.Tip.Kind == ChargePercent && e.Tip.Percent.GreaterThan(maxSaneTipPercent) {
		warnings = append(warnings, Warning{
			Field:   "tip",
			Message: "tip rate of " + e.Tip.Percent.String() + "% is unusually high",
		})
	}
	return warnings
}

func checkPercent(field string, percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return Validationf(field, "percent must be in [0,100], got %s", percent)
	}
	return nil
}

func validateCharge(field string, kind ChargeKind, percent decimal.Decimal, base PercentBase, amount decimal.Decimal) error {
	switch kind {
	case ChargePercent:
		if err := checkPercent(field, percent); err != nil {
			return err
		}
		if !base.Valid() {
			return Validationf(field, "unknown percent base: %q", base)
		}
	case ChargeAmount:
		if amount.IsNegative() {
			return Validationf(field, "amount cannot be negative, got %s", amount)
		}
	default:
		return Validationf(field, "unknown charge kind: %q", kind)
	}
	return nil
}
