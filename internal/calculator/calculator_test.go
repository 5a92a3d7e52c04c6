package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripledger/tripledger/internal/models"
)

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func even(t *testing.T, participants ...string) models.ItemAssignment {
	t.Helper()
	a, err := models.EvenAssignment(participants...)
	require.NoError(t, err)
	return a
}

func custom(t *testing.T, shares map[string]decimal.Decimal) models.ItemAssignment {
	t.Helper()
	a, err := models.CustomAssignment(shares)
	require.NoError(t, err)
	return a
}

// Restaurant receipt: two solo dishes, one shared appetizer, percent tax on
// the pre-tax subtotal and percent tip on the post-tax subtotal.
func dinnerInput(t *testing.T) Input {
	t.Helper()
	tax, err := models.PercentTax(dec("8.875"), models.BasePreTaxItems)
	require.NoError(t, err)
	tip, err := models.PercentTip(dec("18"), models.BasePostTax)
	require.NoError(t, err)

	return Input{
		ExpenseID: "dinner-1",
		Items: []models.LineItem{
			{ID: "i1", Name: "Pho", Quantity: dec("1"), UnitPrice: dec("14.00"), Taxable: true, Assignment: even(t, "alice")},
			{ID: "i2", Name: "Bun Cha", Quantity: dec("1"), UnitPrice: dec("13.00"), Taxable: true, Assignment: even(t, "bob")},
			{ID: "i3", Name: "Spring Rolls", Quantity: dec("1"), UnitPrice: dec("8.00"), Taxable: true, Assignment: even(t, "alice", "bob")},
		},
		Extras:       models.Extras{Tax: tax, Tip: tip},
		Rule:         models.DefaultAllocationRule("USD"),
		PayerID:      "alice",
		Participants: []string{"alice", "bob"},
	}
}

func TestCalculateDinner(t *testing.T) {
	res, err := Calculate(dinnerInput(t))
	require.NoError(t, err)

	// Subtotals 18.00 / 17.00, tax 8.875%, tip 18% of post-tax.
	assert.True(t, res.GrandTotal.Equal(dec("44.97")), "grand total %s", res.GrandTotal)
	assert.True(t, res.Amounts["alice"].Equal(dec("23.13")), "alice %s", res.Amounts["alice"])
	assert.True(t, res.Amounts["bob"].Equal(dec("21.84")), "bob %s", res.Amounts["bob"])

	sum := res.Amounts["alice"].Add(res.Amounts["bob"])
	assert.True(t, sum.Equal(res.GrandTotal))

	alice := res.Breakdowns["alice"]
	assert.True(t, alice.ItemSubtotal.Equal(dec("18.00")))
	assert.True(t, alice.TaxAllocated.Equal(dec("1.60")), "alice tax %s", alice.TaxAllocated)
	assert.True(t, alice.TipAllocated.Equal(dec("3.53")), "alice tip %s", alice.TipAllocated)
	assert.True(t, alice.ComponentSum().Equal(alice.Total))
	assert.Len(t, alice.Items, 2)
	assert.Empty(t, res.Warnings)
}

func TestCalculateCustomShares(t *testing.T) {
	in := Input{
		ExpenseID: "lunch-1",
		Items: []models.LineItem{
			{ID: "i1", Name: "Platter", Quantity: dec("1"), UnitPrice: dec("12.00"),
				Assignment: custom(t, map[string]decimal.Decimal{
					"alice": dec("0.6667"),
					"bob":   dec("0.3333"),
				})},
		},
		Rule:         models.DefaultAllocationRule("USD"),
		PayerID:      "alice",
		Participants: []string{"alice", "bob"},
	}

	res, err := Calculate(in)
	require.NoError(t, err)
	assert.True(t, res.GrandTotal.Equal(dec("12.00")))
	assert.True(t, res.Amounts["alice"].Equal(dec("8.00")), "alice %s", res.Amounts["alice"])
	assert.True(t, res.Amounts["bob"].Equal(dec("4.00")), "bob %s", res.Amounts["bob"])
}

func TestCalculateDecodedSharesRenormalized(t *testing.T) {
	// A stored or wire-decoded assignment bypasses CustomAssignment, so its
	// shares may sum to 0.999 and still validate. The engine must rescale
	// them: a $12.00 item bills $12.00, not $11.99.
	in := Input{
		ExpenseID: "lunch-2",
		Items: []models.LineItem{
			{ID: "i1", Name: "Platter", Quantity: dec("1"), UnitPrice: dec("12.00"),
				Assignment: models.ItemAssignment{
					Kind: models.AssignmentCustom,
					Shares: map[string]decimal.Decimal{
						"alice": dec("0.333"),
						"bob":   dec("0.333"),
						"carol": dec("0.333"),
					},
				}},
		},
		Rule:         models.DefaultAllocationRule("USD"),
		PayerID:      "alice",
		Participants: []string{"alice", "bob", "carol"},
	}

	res, err := Calculate(in)
	require.NoError(t, err)
	assert.True(t, res.GrandTotal.Equal(dec("12.00")), "grand total %s", res.GrandTotal)

	sum := decimal.Zero
	for id, amt := range res.Amounts {
		assert.True(t, amt.Equal(dec("4.00")), "%s got %s", id, amt)
		sum = sum.Add(amt)
	}
	assert.True(t, sum.Equal(res.GrandTotal))
}

func TestCalculateZeroDecimalCurrency(t *testing.T) {
	in := Input{
		ExpenseID: "hanoi-1",
		Items: []models.LineItem{
			{ID: "i1", Name: "Banh Mi", Quantity: dec("1"), UnitPrice: dec("100000"),
				Assignment: even(t, "alice", "bob", "carol")},
		},
		Rule:         models.DefaultAllocationRule("VND"),
		PayerID:      "alice",
		Participants: []string{"alice", "bob", "carol"},
	}

	res, err := Calculate(in)
	require.NoError(t, err)
	assert.True(t, res.GrandTotal.Equal(dec("100000")))

	sum := decimal.Zero
	for id, amt := range res.Amounts {
		assert.True(t, amt.Equal(amt.Truncate(0)), "%s owes fractional dong: %s", id, amt)
		sum = sum.Add(amt)
	}
	assert.True(t, sum.Equal(res.GrandTotal))

	// 100000/3 leaves one leftover dong; equal subtotals tie-break to the
	// smallest id.
	assert.True(t, res.Amounts["alice"].Equal(dec("33334")), "alice %s", res.Amounts["alice"])
	assert.True(t, res.Amounts["bob"].Equal(dec("33333")))
	assert.True(t, res.Amounts["carol"].Equal(dec("33333")))

	for id, b := range res.Breakdowns {
		assert.True(t, b.Total.Equal(b.Total.Truncate(0)), "%s total fractional", id)
		assert.True(t, b.RoundingAdjustment.Equal(b.RoundingAdjustment.Truncate(0)), "%s adjustment fractional", id)
		for _, c := range b.Items {
			assert.True(t, c.Amount.Equal(c.Amount.Truncate(0)), "%s item contribution fractional", id)
		}
		assert.True(t, b.ComponentSum().Equal(b.Total))
	}
}

func TestCalculateDeterminism(t *testing.T) {
	first, err := Calculate(dinnerInput(t))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := Calculate(dinnerInput(t))
		require.NoError(t, err)
		assert.True(t, again.GrandTotal.Equal(first.GrandTotal))
		for id, amt := range first.Amounts {
			assert.True(t, again.Amounts[id].Equal(amt), "run %d: %s drifted", i, id)
		}
	}
}

func TestCalculateDiscountClamped(t *testing.T) {
	// A $20 even discount against a $6/$30 receipt would push the small
	// participant negative; their share is clamped at zero instead.
	disc, err := models.AmountDiscount("promo", dec("20.00"), models.SplitEvenAcrossParticipants, true)
	require.NoError(t, err)

	in := Input{
		ExpenseID: "promo-1",
		Items: []models.LineItem{
			{ID: "i1", Name: "Soup", Quantity: dec("1"), UnitPrice: dec("6.00"), Assignment: even(t, "alice")},
			{ID: "i2", Name: "Steak", Quantity: dec("1"), UnitPrice: dec("30.00"), Assignment: even(t, "bob")},
		},
		Extras:       models.Extras{Discounts: []models.Discount{disc}},
		Rule:         models.DefaultAllocationRule("USD"),
		PayerID:      "alice",
		Participants: []string{"alice", "bob"},
	}

	res, err := Calculate(in)
	require.NoError(t, err)
	assert.True(t, res.Amounts["alice"].Equal(dec("0.00")), "alice %s", res.Amounts["alice"])
	assert.True(t, res.Amounts["bob"].Equal(dec("20.00")), "bob %s", res.Amounts["bob"])
	assert.True(t, res.GrandTotal.Equal(dec("20.00")))
}

func TestCalculatePayerWithoutItems(t *testing.T) {
	in := Input{
		ExpenseID: "treat-1",
		Items: []models.LineItem{
			{ID: "i1", Name: "Cake", Quantity: dec("1"), UnitPrice: dec("10.00"), Assignment: even(t, "bob")},
		},
		Rule:         models.DefaultAllocationRule("USD"),
		PayerID:      "alice",
		Participants: []string{"alice", "bob"},
	}

	res, err := Calculate(in)
	require.NoError(t, err)
	assert.True(t, res.Amounts["alice"].IsZero())
	assert.True(t, res.Amounts["bob"].Equal(dec("10.00")))
}

func TestCalculateAmountChargesConserved(t *testing.T) {
	tax, err := models.AmountTax(dec("2.47"))
	require.NoError(t, err)
	tip, err := models.AmountTip(dec("5.00"))
	require.NoError(t, err)
	fee, err := models.AmountFee("delivery", dec("3.99"), models.SplitEvenAcrossParticipants)
	require.NoError(t, err)

	in := Input{
		ExpenseID: "takeout-1",
		Items: []models.LineItem{
			{ID: "i1", Name: "Curry", Quantity: dec("1"), UnitPrice: dec("11.50"), Assignment: even(t, "alice")},
			{ID: "i2", Name: "Noodles", Quantity: dec("2"), UnitPrice: dec("4.25"), Assignment: even(t, "bob", "carol")},
		},
		Extras:       models.Extras{Tax: tax, Tip: tip, Fees: []models.Fee{fee}},
		Rule:         models.DefaultAllocationRule("USD"),
		PayerID:      "alice",
		Participants: []string{"alice", "bob", "carol"},
	}

	res, err := Calculate(in)
	require.NoError(t, err)

	want := dec("11.50").Add(dec("8.50")).Add(dec("2.47")).Add(dec("5.00")).Add(dec("3.99"))
	assert.True(t, res.GrandTotal.Equal(want), "grand total %s, want %s", res.GrandTotal, want)

	sum := decimal.Zero
	for _, amt := range res.Amounts {
		sum = sum.Add(amt)
	}
	assert.True(t, sum.Equal(res.GrandTotal))
	for id, b := range res.Breakdowns {
		assert.True(t, b.ComponentSum().Equal(b.Total), "%s breakdown inconsistent", id)
	}
}

func TestCalculateTaxableFilter(t *testing.T) {
	tax, err := models.PercentTax(dec("10"), models.BaseTaxableItems)
	require.NoError(t, err)

	in := Input{
		ExpenseID: "grocery-1",
		Items: []models.LineItem{
			{ID: "i1", Name: "Wine", Quantity: dec("1"), UnitPrice: dec("20.00"), Taxable: true, Assignment: even(t, "alice")},
			{ID: "i2", Name: "Bread", Quantity: dec("1"), UnitPrice: dec("5.00"), Assignment: even(t, "bob")},
		},
		Extras:       models.Extras{Tax: tax},
		Rule:         models.DefaultAllocationRule("USD"),
		PayerID:      "alice",
		Participants: []string{"alice", "bob"},
	}

	res, err := Calculate(in)
	require.NoError(t, err)

	// Only the wine is taxable; bob owes no tax for the bread.
	assert.True(t, res.Amounts["alice"].Equal(dec("22.00")))
	assert.True(t, res.Amounts["bob"].Equal(dec("5.00")))
	assert.True(t, res.Breakdowns["bob"].TaxAllocated.IsZero())
}

func TestCalculateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"no items", func(in *Input) { in.Items = nil }},
		{"no payer", func(in *Input) { in.PayerID = "" }},
		{"bad rounding precision", func(in *Input) { in.Rule.Rounding.Precision = -1 }},
		{"unknown remainder mode", func(in *Input) { in.Rule.Rounding.RemainderDistribution = "COIN_FLIP" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := dinnerInput(t)
			tt.mutate(&in)
			_, err := Calculate(in)
			require.Error(t, err)
			assert.True(t, models.IsValidation(err), "want validation error, got %v", err)
		})
	}
}

func TestCalculateWarnings(t *testing.T) {
	tax, err := models.PercentTax(dec("45"), models.BasePreTaxItems)
	require.NoError(t, err)

	in := dinnerInput(t)
	in.Extras = models.Extras{Tax: tax}

	res, err := Calculate(in)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "tax", res.Warnings[0].Field)
}
