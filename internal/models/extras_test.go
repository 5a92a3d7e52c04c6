package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChargeFactories(t *testing.T) {
	t.Run("percent tax requires valid base", func(t *testing.T) {
		_, err := PercentTax(d("8.875"), "POST_TIP")
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("percent out of range", func(t *testing.T) {
		_, err := PercentTax(d("101"), BaseTaxableItems)
		require.Error(t, err)

		_, err = PercentTip(d("-1"), BasePostTax)
		require.Error(t, err)
	})

	t.Run("amount cannot be negative", func(t *testing.T) {
		_, err := AmountTax(d("-0.01"))
		require.Error(t, err)

		_, err = AmountFee("delivery", d("-5"), SplitEvenAcrossParticipants)
		require.Error(t, err)
	})

	t.Run("valid constructions", func(t *testing.T) {
		tax, err := PercentTax(d("8.875"), BaseTaxableItems)
		require.NoError(t, err)
		assert.Equal(t, ChargePercent, tax.Kind)

		tip, err := AmountTip(d("6"))
		require.NoError(t, err)
		assert.Equal(t, ChargeAmount, tip.Kind)

		fee, err := PercentFee("service", d("10"), BaseServiceItems)
		require.NoError(t, err)
		assert.Equal(t, BaseServiceItems, fee.Base)

		disc, err := AmountDiscount("coupon", d("5"), SplitProportionalToItemSubtotals, true)
		require.NoError(t, err)
		assert.True(t, disc.ApplyBeforeTax)
	})
}

func TestExtrasValidate(t *testing.T) {
	t.Run("rejects unknown split mode on decoded fee", func(t *testing.T) {
		e := Extras{Fees: []Fee{{Name: "delivery", Kind: ChargeAmount, Amount: d("5"), Split: "HALVES"}}}
		err := e.Validate()
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("accepts empty extras", func(t *testing.T) {
		assert.NoError(t, Extras{}.Validate())
	})
}

func TestSanityWarnings(t *testing.T) {
	tax, err := PercentTax(d("45"), BaseTaxableItems)
	require.NoError(t, err)
	tip, err := PercentTip(d("60"), BasePostTax)
	require.NoError(t, err)

	warnings := Extras{Tax: tax, Tip: tip}.SanityWarnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "tax", warnings[0].Field)
	assert.Equal(t, "tip", warnings[1].Field)

	sane, err := PercentTax(d("8.875"), BaseTaxableItems)
	require.NoError(t, err)
	assert.Empty(t, Extras{Tax: sane}.SanityWarnings())

	// Fixed-amount extras are never flagged, whatever their size.
	big, err := AmountTip(d("500"))
	require.NoError(t, err)
	assert.Empty(t, Extras{Tip: big}.SanityWarnings())
}
