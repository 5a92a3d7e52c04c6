package models

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tripledger/tripledger/internal/currency"
)

// SplitKind discriminates the Expense split variant.
type SplitKind string

const (
	// SplitLegacy is the participant-weight split used by older records.
	SplitLegacy SplitKind = "LEGACY"
	// SplitItemized carries a full receipt and the engine's computed output.
	SplitItemized SplitKind = "ITEMIZED"
)

// Split is the tagged variant describing how an expense divides among
// participants. Both kinds coexist in one store; the settlement engine
// consumes either through Shares.
type Split interface {
	Kind() SplitKind
	// Shares returns each participant's currency-precise share of amount.
	// The shares always sum to exactly amount.
	Shares(amount decimal.Decimal, precision int) (map[string]decimal.Decimal, error)
}

// LegacySplit divides the expense proportionally to participant weights.
// A weight map of {a:1, b:1} is an even two-way split; {a:2, b:1} charges
// a twice as much as b.
type LegacySplit struct {
	Weights map[string]decimal.Decimal `json:"weights"`
}

func (s *LegacySplit) Kind() SplitKind { return SplitLegacy }

// Shares divides amount proportionally to weights, rounding each share
// half-up and assigning the leftover minor units to the lexicographically
// smallest participant so the shares reconcile exactly.
func (s *LegacySplit) Shares(amount decimal.Decimal, precision int) (map[string]decimal.Decimal, error) {
	if len(s.Weights) == 0 {
		return nil, Validationf("split", "weighted split must have at least one participant")
	}
	totalWeight := decimal.Zero
	ids := make([]string, 0, len(s.Weights))
	for id, w := range s.Weights {
		if w.IsNegative() {
			return nil, Validationf("split", "weight for %s cannot be negative", id)
		}
		totalWeight = totalWeight.Add(w)
		ids = append(ids, id)
	}
	if totalWeight.IsZero() {
		return nil, Validationf("split", "weights cannot all be zero")
	}
	sort.Strings(ids)

	shares := make(map[string]decimal.Decimal, len(ids))
	distributed := decimal.Zero
	for _, id := range ids {
		share := currency.Round(amount.Mul(s.Weights[id]).Div(totalWeight), precision, currency.RoundHalfUp)
		shares[id] = share
		distributed = distributed.Add(share)
	}
	if remainder := amount.Sub(distributed); !remainder.IsZero() {
		shares[ids[0]] = shares[ids[0]].Add(remainder)
	}
	return shares, nil
}

// ItemizedSplit carries the receipt inputs plus the allocation engine's
// computed per-participant output. Amounts and Breakdowns are produced at
// save time and immutable thereafter; editing re-runs the whole pipeline.
type ItemizedSplit struct {
	Items      []LineItem     `json:"items"`
	Extras     Extras         `json:"extras"`
	Allocation AllocationRule `json:"allocation"`

	// ParticipantAmounts is each participant's final rounded share.
	ParticipantAmounts map[string]decimal.Decimal `json:"participantAmounts"`
	// Breakdowns is the per-participant audit trail.
	Breakdowns map[string]ParticipantBreakdown `json:"participantBreakdown"`
}

func (s *ItemizedSplit) Kind() SplitKind { return SplitItemized }

// Shares returns the precomputed participant amounts.
func (s *ItemizedSplit) Shares(amount decimal.Decimal, precision int) (map[string]decimal.Decimal, error) {
	if len(s.ParticipantAmounts) == 0 {
		return nil, Validationf("split", "itemized expense has no computed participant amounts")
	}
	shares := make(map[string]decimal.Decimal, len(s.ParticipantAmounts))
	sum := decimal.Zero
	for id, amt := range s.ParticipantAmounts {
		shares[id] = amt
		sum = sum.Add(amt)
	}
	// One smallest-unit tolerance covers records written by older app
	// versions that rounded the stored grand total separately.
	if sum.Sub(amount).Abs().GreaterThan(decimal.New(1, -int32(precision))) {
		return nil, IntegrityErrorf("itemized shares sum to %s, expense amount is %s", sum, amount)
	}
	return shares, nil
}

// Expense is one shared cost in a trip.
type Expense struct {
	ID          string          `json:"id"`
	TripID      string          `json:"tripId"`
	Description string          `json:"description"`
	Currency    string          `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	PayerID     string          `json:"payerId"`
	CreatedAt   int64           `json:"createdAt"`
	Split       Split           `json:"-"`
}

// Shares returns each participant's share of this expense at the expense's
// currency precision.
func (e *Expense) Shares() (map[string]decimal.Decimal, error) {
	if e.Split == nil {
		return nil, Validationf("expense", "expense has no split")
	}
	return e.Split.Shares(e.Amount, currency.Precision(e.Currency))
}

// Validate checks the expense's invariants, including the itemized
// conservation invariant (shares sum to the amount within one smallest
// currency unit).
func (e *Expense) Validate() error {
	if e.PayerID == "" {
		return Validationf("payerId", "expense must have a payer")
	}
	if e.Amount.IsNegative() {
		return Validationf("amount", "amount cannot be negative, got %s", e.Amount)
	}
	if e.Split == nil {
		return Validationf("expense", "expense must have a split")
	}
	_, err := e.Shares()
	return err
}

// Transfer is one point-to-point payment suggested by the settlement engine
// (or recorded by a user as already settled).
type Transfer struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}
