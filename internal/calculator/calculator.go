// Package calculator implements the itemized allocation engine: it turns a
// receipt (line items, extras, allocation rule) into per-participant
// currency-precise amounts with a full audit trail.
//
// The pipeline runs in a strict order because percent bases reference its
// intermediate states (pre-tax, post-tax, post-fees):
//
//	item subtotals → pre-tax discounts → tax → post-tax discounts →
//	fees → tip → assemble → round and reconcile
//
// The engine is a pure function: identical inputs produce identical outputs,
// including which participant absorbs the rounding remainder.
package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tripledger/tripledger/internal/currency"
	"github.com/tripledger/tripledger/internal/models"
)

// Input groups everything the engine needs for one itemized allocation.
type Input struct {
	// ExpenseID seeds the RANDOM remainder mode; any stable identifier works.
	ExpenseID string
	Items     []models.LineItem
	Extras    models.Extras
	Rule      models.AllocationRule
	PayerID   string
	// Participants is the trip roster. Participants without items (say, the
	// payer covering others) are valid zero-subtotal entries.
	Participants []string
}

// Result is the engine's output. Amounts always sum to exactly GrandTotal.
type Result struct {
	GrandTotal decimal.Decimal
	Amounts    map[string]decimal.Decimal
	Breakdowns map[string]models.ParticipantBreakdown
	// Warnings flag suspicious-but-legal input; they never block the result.
	Warnings []models.Warning
}

// Calculate runs the full allocation pipeline. Validation errors are
// *models.ValidationError; a post-calculation reconciliation failure wraps
// models.ErrDataIntegrity.
func Calculate(in Input) (*Result, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	led := newLedger(in)

	led.accumulateItems(in.Items)
	led.applyDiscounts(in.Extras.Discounts, true)
	led.applyTax(in.Extras.Tax)
	led.applyDiscounts(in.Extras.Discounts, false)
	led.applyFees(in.Extras.Fees)
	led.applyTip(in.Extras.Tip)

	result, err := led.assemble(in)
	if err != nil {
		return nil, err
	}
	result.Warnings = in.Extras.SanityWarnings()
	return result, nil
}

func validate(in Input) error {
	if len(in.Items) == 0 {
		return models.Validationf("items", "itemized expense must have at least one item")
	}
	if in.PayerID == "" {
		return models.Validationf("payerId", "expense must have a payer")
	}
	for _, item := range in.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	if err := in.Extras.Validate(); err != nil {
		return err
	}
	return in.Rule.Validate()
}

// ledger is the engine's per-participant working state. All values are
// unrounded until assemble.
type ledger struct {
	// roster is the deduplicated, sorted union of the trip participants, the
	// payer, and every item assignee. Sorted order makes every iteration
	// deterministic.
	roster []string

	itemSub    map[string]decimal.Decimal
	taxableSub map[string]decimal.Decimal
	serviceSub map[string]decimal.Decimal
	discounts  map[string]decimal.Decimal // accumulated, zero or negative
	tax        map[string]decimal.Decimal
	fees       map[string]decimal.Decimal
	tip        map[string]decimal.Decimal
	contribs   map[string][]models.ItemContribution
}

func newLedger(in Input) *ledger {
	seen := make(map[string]bool)
	var roster []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			roster = append(roster, id)
		}
	}
	for _, p := range in.Participants {
		add(p)
	}
	add(in.PayerID)
	for _, item := range in.Items {
		for _, p := range item.Assignment.ParticipantIDs() {
			add(p)
		}
	}
	sort.Strings(roster)

	led := &ledger{
		roster:     roster,
		itemSub:    make(map[string]decimal.Decimal, len(roster)),
		taxableSub: make(map[string]decimal.Decimal, len(roster)),
		serviceSub: make(map[string]decimal.Decimal, len(roster)),
		discounts:  make(map[string]decimal.Decimal, len(roster)),
		tax:        make(map[string]decimal.Decimal, len(roster)),
		fees:       make(map[string]decimal.Decimal, len(roster)),
		tip:        make(map[string]decimal.Decimal, len(roster)),
		contribs:   make(map[string][]models.ItemContribution, len(roster)),
	}
	for _, p := range roster {
		led.itemSub[p] = decimal.Zero
		led.taxableSub[p] = decimal.Zero
		led.serviceSub[p] = decimal.Zero
		led.discounts[p] = decimal.Zero
		led.tax[p] = decimal.Zero
		led.fees[p] = decimal.Zero
		led.tip[p] = decimal.Zero
	}
	return led
}

// accumulateItems computes each participant's unrounded share of every item
// and records the audit contribution.
func (l *ledger) accumulateItems(items []models.LineItem) {
	for _, item := range items {
		total := item.ItemTotal()
		// Decoded assignments may carry shares summing anywhere within the
		// validation tolerance; rescale so the item bills its full price.
		assignment := item.Assignment.Normalized()
		for _, p := range assignment.ParticipantIDs() {
			share := total.Mul(assignment.Share(p))
			l.itemSub[p] = l.itemSub[p].Add(share)
			if item.Taxable {
				l.taxableSub[p] = l.taxableSub[p].Add(share)
			}
			if item.ServiceChargeable {
				l.serviceSub[p] = l.serviceSub[p].Add(share)
			}
			l.contribs[p] = append(l.contribs[p], models.ItemContribution{
				ItemID: item.ID,
				Name:   item.Name,
				Amount: share,
			})
		}
	}
}

// runningSub is a participant's item subtotal after discounts applied so far.
// Never negative: discounts are clamped as they are applied.
func (l *ledger) runningSub(p string) decimal.Decimal {
	return l.itemSub[p].Add(l.discounts[p])
}

// baseShares returns each participant's contribution to the given percent
// base, evaluated from the subtotals accumulated so far.
func (l *ledger) baseShares(base models.PercentBase) map[string]decimal.Decimal {
	shares := make(map[string]decimal.Decimal, len(l.roster))
	for _, p := range l.roster {
		switch base {
		case models.BasePreTaxItems:
			shares[p] = l.itemSub[p]
		case models.BaseTaxableItems:
			shares[p] = l.taxableSub[p]
		case models.BaseServiceItems:
			shares[p] = l.serviceSub[p]
		case models.BasePostDiscountItems:
			shares[p] = l.runningSub(p)
		case models.BasePostTax:
			shares[p] = l.runningSub(p).Add(l.tax[p])
		case models.BasePostFees:
			shares[p] = l.runningSub(p).Add(l.tax[p]).Add(l.fees[p])
		default:
			shares[p] = decimal.Zero
		}
	}
	return shares
}

func sumShares(shares map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range shares {
		total = total.Add(v)
	}
	return total
}

// withItems returns the participants holding at least one assigned item.
func (l *ledger) withItems() []string {
	var ids []string
	for _, p := range l.roster {
		if len(l.contribs[p]) > 0 {
			ids = append(ids, p)
		}
	}
	return ids
}

// allocateProportional divides total across participants in proportion to
// weights. A zero weight total means nobody contributed to the base: percent
// charges are zero there by construction, and fixed amounts fall back to an
// even split so no money is dropped.
func (l *ledger) allocateProportional(total decimal.Decimal, weights map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.roster))
	for _, p := range l.roster {
		out[p] = decimal.Zero
	}
	if total.IsZero() {
		return out
	}
	weightTotal := sumShares(weights)
	if weightTotal.IsZero() {
		return l.allocateEven(total, l.withItems())
	}
	for _, p := range l.roster {
		out[p] = total.Mul(weights[p]).Div(weightTotal)
	}
	return out
}

// allocateEven divides total equally among the given participants, falling
// back to the full roster when none qualify.
func (l *ledger) allocateEven(total decimal.Decimal, among []string) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.roster))
	for _, p := range l.roster {
		out[p] = decimal.Zero
	}
	if total.IsZero() {
		return out
	}
	if len(among) == 0 {
		among = l.roster
	}
	per := total.Div(decimal.NewFromInt(int64(len(among))))
	for _, p := range among {
		out[p] = per
	}
	return out
}

// applyDiscounts applies the discounts matching the beforeTax phase. Each
// participant's share is clamped so their running subtotal never goes below
// zero; the clamped shortfall is absorbed, not redistributed.
func (l *ledger) applyDiscounts(discounts []models.Discount, beforeTax bool) {
	for _, d := range discounts {
		if d.ApplyBeforeTax != beforeTax {
			continue
		}
		var allocated map[string]decimal.Decimal
		if d.Kind == models.ChargePercent {
			weights := l.baseShares(d.Base)
			total := sumShares(weights).Mul(d.Percent).Div(hundred)
			allocated = l.allocateProportional(total, weights)
		} else {
			switch d.Split {
			case models.SplitEvenAcrossParticipants:
				allocated = l.allocateEven(d.Amount, l.withItems())
			default:
				allocated = l.allocateProportional(d.Amount, l.currentItemSubs())
			}
		}
		for _, p := range l.roster {
			share := allocated[p]
			if running := l.runningSub(p); share.GreaterThan(running) {
				share = running
			}
			l.discounts[p] = l.discounts[p].Sub(share)
		}
	}
}

// applyTax resolves the tax base and allocates the total tax proportionally
// to each participant's contribution to that base. A participant with zero
// contribution to a filtered base owes zero tax even if they have other
// items.
func (l *ledger) applyTax(t *models.Tax) {
	if t == nil {
		return
	}
	var allocated map[string]decimal.Decimal
	if t.Kind == models.ChargePercent {
		weights := l.baseShares(t.Base)
		total := sumShares(weights).Mul(t.Percent).Div(hundred)
		allocated = l.allocateProportional(total, weights)
	} else {
		allocated = l.allocateProportional(t.Amount, l.currentItemSubs())
	}
	for _, p := range l.roster {
		l.tax[p] = l.tax[p].Add(allocated[p])
	}
}

func (l *ledger) applyFees(fees []models.Fee) {
	for _, f := range fees {
		var allocated map[string]decimal.Decimal
		if f.Kind == models.ChargePercent {
			weights := l.baseShares(f.Base)
			total := sumShares(weights).Mul(f.Percent).Div(hundred)
			allocated = l.allocateProportional(total, weights)
		} else {
			switch f.Split {
			case models.SplitEvenAcrossParticipants:
				allocated = l.allocateEven(f.Amount, l.withItems())
			default:
				allocated = l.allocateProportional(f.Amount, l.currentItemSubs())
			}
		}
		for _, p := range l.roster {
			l.fees[p] = l.fees[p].Add(allocated[p])
		}
	}
}

func (l *ledger) applyTip(t *models.Tip) {
	if t == nil {
		return
	}
	var allocated map[string]decimal.Decimal
	if t.Kind == models.ChargePercent {
		weights := l.baseShares(t.Base)
		total := sumShares(weights).Mul(t.Percent).Div(hundred)
		allocated = l.allocateProportional(total, weights)
	} else {
		allocated = l.allocateProportional(t.Amount, l.baseShares(models.BasePostFees))
	}
	for _, p := range l.roster {
		l.tip[p] = l.tip[p].Add(allocated[p])
	}
}

// currentItemSubs snapshots the post-discount item subtotals, the weight
// vector for proportional fixed-amount splits.
func (l *ledger) currentItemSubs() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(l.roster))
	for _, p := range l.roster {
		out[p] = l.runningSub(p)
	}
	return out
}

// unroundedTotal is a participant's total before currency rounding.
func (l *ledger) unroundedTotal(p string) decimal.Decimal {
	return l.itemSub[p].Add(l.discounts[p]).Add(l.tax[p]).Add(l.fees[p]).Add(l.tip[p])
}

var hundred = decimal.NewFromInt(100)

// assemble rounds every participant to currency precision, reconciles the
// remainder, and builds the audit breakdowns. See rounding.go for the
// remainder distribution rules.
func (l *ledger) assemble(in Input) (*Result, error) {
	cfg := in.Rule.Rounding
	precision := cfg.Precision

	grandUnrounded := decimal.Zero
	for _, p := range l.roster {
		grandUnrounded = grandUnrounded.Add(l.unroundedTotal(p))
	}
	grandTotal := currency.Round(grandUnrounded, precision, cfg.Mode)

	rounded := make(map[string]decimal.Decimal, len(l.roster))
	roundedSum := decimal.Zero
	for _, p := range l.roster {
		rounded[p] = currency.Round(l.unroundedTotal(p), precision, cfg.Mode)
		roundedSum = roundedSum.Add(rounded[p])
	}

	remainder := grandTotal.Sub(roundedSum)
	if !remainder.IsZero() {
		recipient, err := l.remainderRecipient(in, cfg.RemainderDistribution)
		if err != nil {
			return nil, err
		}
		rounded[recipient] = rounded[recipient].Add(remainder)
	}

	amounts := make(map[string]decimal.Decimal, len(l.roster))
	breakdowns := make(map[string]models.ParticipantBreakdown, len(l.roster))
	finalSum := decimal.Zero
	for _, p := range l.roster {
		total := rounded[p]
		finalSum = finalSum.Add(total)
		amounts[p] = total

		b := models.ParticipantBreakdown{
			ItemSubtotal:       currency.Round(l.itemSub[p], precision, cfg.Mode),
			TaxAllocated:       currency.Round(l.tax[p], precision, cfg.Mode),
			TipAllocated:       currency.Round(l.tip[p], precision, cfg.Mode),
			FeesAllocated:      currency.Round(l.fees[p], precision, cfg.Mode),
			DiscountsAllocated: currency.Round(l.discounts[p], precision, cfg.Mode),
			Total:              total,
			Items:              l.roundedContribs(p, precision, cfg.Mode),
		}
		// The adjustment closes the gap between independently rounded
		// components and the reconciled total, so ComponentSum == Total
		// holds exactly and zero-decimal currencies never show fractions.
		b.RoundingAdjustment = total.Sub(b.ItemSubtotal.
			Add(b.TaxAllocated).
			Add(b.TipAllocated).
			Add(b.FeesAllocated).
			Add(b.DiscountsAllocated))
		breakdowns[p] = b
	}

	if !finalSum.Equal(grandTotal) {
		return nil, models.IntegrityErrorf(
			"participant totals sum to %s, grand total is %s", finalSum, grandTotal)
	}
	for p, b := range breakdowns {
		if !b.ComponentSum().Equal(b.Total) {
			return nil, models.IntegrityErrorf(
				"breakdown components for %s sum to %s, total is %s", p, b.ComponentSum(), b.Total)
		}
	}

	return &Result{
		GrandTotal: grandTotal,
		Amounts:    amounts,
		Breakdowns: breakdowns,
	}, nil
}

func (l *ledger) roundedContribs(p string, precision int, mode currency.RoundingMode) []models.ItemContribution {
	contribs := make([]models.ItemContribution, len(l.contribs[p]))
	for i, c := range l.contribs[p] {
		c.Amount = currency.Round(c.Amount, precision, mode)
		contribs[i] = c
	}
	return contribs
}
