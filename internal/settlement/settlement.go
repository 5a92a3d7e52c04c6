// Package settlement reduces a trip's accumulated per-person balances to a
// minimal list of pairwise transfers.
//
// Net balances are computed across every expense in the trip, legacy and
// itemized alike: the payer is credited the expense amount and each
// participant is debited their share. The greedy largest-debtor/largest-
// creditor matching then zeroes every balance in at most n−1 transfers for n
// participants with non-zero balances, which is minimal for a fixed balance
// vector.
package settlement

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tripledger/tripledger/internal/currency"
	"github.com/tripledger/tripledger/internal/models"
)

// Result is the settlement engine's output for one trip.
type Result struct {
	// NetBalances maps participant id to credits minus debits across all
	// expenses. Positive means the participant is owed money.
	NetBalances map[string]decimal.Decimal
	// ActiveTransfers is the minimal transfer list with user-recorded
	// settled transfers already subtracted.
	ActiveTransfers []models.Transfer
	// SettledTransfers echoes the user-recorded settled transfers for
	// historical display.
	SettledTransfers []models.Transfer
}

// Compute derives net balances from the expenses, nets them into a minimal
// transfer list, and subtracts previously settled transfers. The currency
// code fixes the precision for transfer amounts and the zero tolerance.
//
// A balance vector that does not sum to (near) zero means money was created
// or destroyed upstream; that is reported as a data-integrity error, not a
// transfer list.
func Compute(expenses []*models.Expense, settled []models.Transfer, currencyCode string) (*Result, error) {
	unit := currency.SmallestUnit(currencyCode)
	precision := currency.Precision(currencyCode)

	balances, err := netBalances(expenses)
	if err != nil {
		return nil, err
	}

	// Each itemized expense may carry up to one smallest unit of historical
	// drift, so the zero-sum tolerance scales with the expense count.
	epsilon := unit.Mul(decimal.NewFromInt(int64(max(len(expenses), 1))))
	sum := decimal.Zero
	for _, b := range balances {
		sum = sum.Add(b)
	}
	if sum.Abs().GreaterThan(epsilon) {
		return nil, models.IntegrityErrorf("net balances sum to %s, expected zero (±%s)", sum, epsilon)
	}

	transfers := netTransfers(balances, unit, precision)
	active := subtractSettled(transfers, settled, unit)

	return &Result{
		NetBalances:      balances,
		ActiveTransfers:  active,
		SettledTransfers: append([]models.Transfer(nil), settled...),
	}, nil
}

// netBalances folds every expense into one net balance per participant.
func netBalances(expenses []*models.Expense) (map[string]decimal.Decimal, error) {
	balances := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		shares, err := e.Shares()
		if err != nil {
			return nil, fmt.Errorf("expense %s: %w", e.ID, err)
		}
		balances[e.PayerID] = balances[e.PayerID].Add(e.Amount)
		for p, share := range shares {
			balances[p] = balances[p].Sub(share)
		}
	}
	return balances, nil
}

// party is one side of the netting loop.
type party struct {
	id      string
	balance decimal.Decimal // always positive: magnitude owed or owed-to
}

// netTransfers runs the greedy matching. Participants within one smallest
// unit of zero are excluded up front.
func netTransfers(balances map[string]decimal.Decimal, unit decimal.Decimal, precision int) []models.Transfer {
	var creditors, debtors []party
	for id, b := range balances {
		switch {
		case b.Abs().LessThan(unit):
			// Effectively settled already.
		case b.IsPositive():
			creditors = append(creditors, party{id: id, balance: b})
		default:
			debtors = append(debtors, party{id: id, balance: b.Neg()})
		}
	}

	// Largest magnitude first; equal magnitudes break by id so the output
	// is stable across runs.
	byMagnitude := func(parties []party) func(i, j int) bool {
		return func(i, j int) bool {
			if !parties[i].balance.Equal(parties[j].balance) {
				return parties[i].balance.GreaterThan(parties[j].balance)
			}
			return parties[i].id < parties[j].id
		}
	}
	sort.Slice(creditors, byMagnitude(creditors))
	sort.Slice(debtors, byMagnitude(debtors))

	var transfers []models.Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		amount := decimal.Min(debtor.balance, creditor.balance)
		amount = currency.Round(amount, precision, currency.RoundHalfUp)
		if amount.IsPositive() {
			transfers = append(transfers, models.Transfer{
				From:   debtor.id,
				To:     creditor.id,
				Amount: amount,
			})
		}

		debtor.balance = debtor.balance.Sub(amount)
		creditor.balance = creditor.balance.Sub(amount)
		if debtor.balance.LessThan(unit) {
			i++
		}
		if creditor.balance.LessThan(unit) {
			j++
		}
	}
	return transfers
}

// subtractSettled removes user-recorded settled transfers from the computed
// list. A settled transfer matches on the {from, to} pair; the settled
// amount is subtracted from the matching transfer, and transfers reduced to
// within one smallest unit of zero drop out entirely.
func subtractSettled(transfers []models.Transfer, settled []models.Transfer, unit decimal.Decimal) []models.Transfer {
	if len(settled) == 0 {
		return transfers
	}
	remaining := make(map[string]decimal.Decimal, len(settled))
	for _, s := range settled {
		key := s.From + "\x00" + s.To
		remaining[key] = remaining[key].Add(s.Amount)
	}

	var active []models.Transfer
	for _, t := range transfers {
		key := t.From + "\x00" + t.To
		if paid, ok := remaining[key]; ok && paid.IsPositive() {
			deducted := decimal.Min(paid, t.Amount)
			remaining[key] = paid.Sub(deducted)
			t.Amount = t.Amount.Sub(deducted)
		}
		if t.Amount.Abs().LessThan(unit) {
			continue
		}
		active = append(active, t)
	}
	return active
}
