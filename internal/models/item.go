package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// AssignmentKind discriminates the ItemAssignment variant.
type AssignmentKind string

const (
	// AssignmentEven splits the item equally among its assignees.
	AssignmentEven AssignmentKind = "EVEN"
	// AssignmentCustom splits the item by explicit fractional shares.
	AssignmentCustom AssignmentKind = "CUSTOM"
)

// shareTolerance is how far custom shares may drift from summing to 1.0
// before the assignment is rejected. UI percentage inputs routinely produce
// 0.3333+0.3333+0.3333, so a hard equality check would reject honest input.
var shareTolerance = decimal.NewFromFloat(0.01)

// ItemAssignment says who consumes a line item and in what proportion.
// Construct through EvenAssignment or CustomAssignment; the zero value is
// invalid (no assignees).
type ItemAssignment struct {
	Kind AssignmentKind `json:"kind"`

	// Participants holds the assignee ids for EVEN assignments.
	Participants []string `json:"participants,omitempty"`

	// Shares maps participant id to their normalized fraction in (0,1] for
	// CUSTOM assignments. Shares always sum to exactly 1 after construction.
	Shares map[string]decimal.Decimal `json:"shares,omitempty"`
}

// EvenAssignment builds an assignment that splits the item equally among the
// given participants.
func EvenAssignment(participants ...string) (ItemAssignment, error) {
	if len(participants) == 0 {
		return ItemAssignment{}, Validationf("assignment", "item must be assigned to at least one participant")
	}
	seen := make(map[string]bool, len(participants))
	ids := make([]string, 0, len(participants))
	for _, p := range participants {
		if p == "" {
			return ItemAssignment{}, Validationf("assignment", "participant id cannot be empty")
		}
		if !seen[p] {
			seen[p] = true
			ids = append(ids, p)
		}
	}
	return ItemAssignment{Kind: AssignmentEven, Participants: ids}, nil
}

// CustomAssignment builds an assignment from explicit shares. Shares must be
// in (0,1] and sum to 1.0 within ±0.01; they are normalized so the stored
// shares sum to exactly 1.
func CustomAssignment(shares map[string]decimal.Decimal) (ItemAssignment, error) {
	if len(shares) == 0 {
		return ItemAssignment{}, Validationf("assignment", "item must be assigned to at least one participant")
	}
	sum := decimal.Zero
	for id, share := range shares {
		if id == "" {
			return ItemAssignment{}, Validationf("assignment", "participant id cannot be empty")
		}
		if share.LessThanOrEqual(decimal.Zero) || share.GreaterThan(decimal.New(1, 0)) {
			return ItemAssignment{}, Validationf("assignment", "share for %s must be in (0,1], got %s", id, share)
		}
		sum = sum.Add(share)
	}
	if sum.Sub(decimal.New(1, 0)).Abs().GreaterThan(shareTolerance) {
		return ItemAssignment{}, Validationf("assignment", "custom shares must sum to 1.0 (±0.01), got %s", sum)
	}
	normalized := make(map[string]decimal.Decimal, len(shares))
	for id, share := range shares {
		normalized[id] = share.Div(sum)
	}
	return ItemAssignment{Kind: AssignmentCustom, Shares: normalized}, nil
}

// Normalized returns the assignment with custom shares rescaled to sum
// exactly 1. Factory-built assignments are already normalized; this covers
// assignments decoded from storage or the wire, whose shares may sum
// anywhere within the ±0.01 tolerance.
func (a ItemAssignment) Normalized() ItemAssignment {
	if a.Kind != AssignmentCustom || len(a.Shares) == 0 {
		return a
	}
	sum := decimal.Zero
	for _, share := range a.Shares {
		sum = sum.Add(share)
	}
	if sum.IsZero() || sum.Equal(decimal.New(1, 0)) {
		return a
	}
	normalized := make(map[string]decimal.Decimal, len(a.Shares))
	for id, share := range a.Shares {
		normalized[id] = share.Div(sum)
	}
	a.Shares = normalized
	return a
}

// ParticipantIDs returns the assignee ids in deterministic (sorted) order.
func (a ItemAssignment) ParticipantIDs() []string {
	var ids []string
	switch a.Kind {
	case AssignmentEven:
		ids = append(ids, a.Participants...)
	case AssignmentCustom:
		for id := range a.Shares {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Share returns the fraction of the item owed by the given participant,
// or zero if they are not an assignee.
func (a ItemAssignment) Share(participantID string) decimal.Decimal {
	switch a.Kind {
	case AssignmentEven:
		for _, p := range a.Participants {
			if p == participantID {
				return decimal.New(1, 0).Div(decimal.NewFromInt(int64(len(a.Participants))))
			}
		}
	case AssignmentCustom:
		if share, ok := a.Shares[participantID]; ok {
			return share
		}
	}
	return decimal.Zero
}

// Validate checks the assignment invariants. Needed for assignments decoded
// from storage or the wire, which bypass the factory functions.
func (a ItemAssignment) Validate() error {
	switch a.Kind {
	case AssignmentEven:
		if len(a.Participants) == 0 {
			return Validationf("assignment", "item must be assigned to at least one participant")
		}
	case AssignmentCustom:
		if len(a.Shares) == 0 {
			return Validationf("assignment", "item must be assigned to at least one participant")
		}
		sum := decimal.Zero
		for _, share := range a.Shares {
			sum = sum.Add(share)
		}
		if sum.Sub(decimal.New(1, 0)).Abs().GreaterThan(shareTolerance) {
			return Validationf("assignment", "custom shares must sum to 1.0 (±0.01), got %s", sum)
		}
	default:
		return Validationf("assignment", "unknown assignment kind: %q", a.Kind)
	}
	return nil
}

// LineItem is one receipt line.
type LineItem struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Quantity          decimal.Decimal `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unitPrice"`
	Taxable           bool            `json:"taxable"`
	ServiceChargeable bool            `json:"serviceChargeable"`
	Assignment        ItemAssignment  `json:"assignment"`
}

// ItemTotal is the line's extended price: quantity × unit price.
func (li LineItem) ItemTotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// Validate checks the line item's invariants.
func (li LineItem) Validate() error {
	field := "item"
	if li.Name != "" {
		field = "item " + li.Name
	}
	if li.Quantity.LessThanOrEqual(decimal.Zero) {
		return Validationf(field, "quantity must be positive, got %s", li.Quantity)
	}
	if li.UnitPrice.IsNegative() {
		return Validationf(field, "unit price cannot be negative, got %s", li.UnitPrice)
	}
	return li.Assignment.Validate()
}
