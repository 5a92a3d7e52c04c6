package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripledger/tripledger/internal/models"
)

// threeWayInput splits $10 evenly three ways, leaving one leftover cent
// after rounding. Who absorbs it depends on the remainder distribution.
func threeWayInput(t *testing.T, mode models.RemainderDistribution) Input {
	t.Helper()
	rule := models.DefaultAllocationRule("USD")
	rule.Rounding.RemainderDistribution = mode
	return Input{
		ExpenseID: "taxi-1",
		Items: []models.LineItem{
			{ID: "i1", Name: "Taxi", Quantity: dec("1"), UnitPrice: dec("10.00"),
				Assignment: even(t, "alice", "bob", "carol")},
		},
		Rule:         rule,
		PayerID:      "bob",
		Participants: []string{"alice", "bob", "carol"},
	}
}

func absorbed(t *testing.T, res *Result) string {
	t.Helper()
	var winner string
	for id, amt := range res.Amounts {
		if amt.Equal(dec("3.34")) {
			require.Empty(t, winner, "two participants absorbed the remainder")
			winner = id
		} else {
			assert.True(t, amt.Equal(dec("3.33")), "%s got %s", id, amt)
		}
	}
	require.NotEmpty(t, winner, "nobody absorbed the remainder")
	return winner
}

func TestRemainderLargestShare(t *testing.T) {
	res, err := Calculate(threeWayInput(t, models.RemainderLargestShare))
	require.NoError(t, err)
	// Equal subtotals tie-break to the smallest id.
	assert.Equal(t, "alice", absorbed(t, res))
}

func TestRemainderLargestShareUnequal(t *testing.T) {
	rule := models.DefaultAllocationRule("USD")
	in := Input{
		ExpenseID: "brunch-1",
		Items: []models.LineItem{
			{ID: "i1", Name: "Shared Platter", Quantity: dec("1"), UnitPrice: dec("10.00"),
				Assignment: even(t, "alice", "bob", "carol")},
			{ID: "i2", Name: "Juice", Quantity: dec("1"), UnitPrice: dec("4.00"),
				Assignment: even(t, "carol")},
		},
		Rule:         rule,
		PayerID:      "alice",
		Participants: []string{"alice", "bob", "carol"},
	}

	res, err := Calculate(in)
	require.NoError(t, err)
	assert.True(t, res.GrandTotal.Equal(dec("14.00")))
	// carol has the largest subtotal, so carol's share carries the extra cent.
	assert.True(t, res.Amounts["carol"].Equal(dec("7.34")), "carol %s", res.Amounts["carol"])
	assert.True(t, res.Amounts["alice"].Equal(dec("3.33")))
	assert.True(t, res.Amounts["bob"].Equal(dec("3.33")))
}

func TestRemainderPayer(t *testing.T) {
	res, err := Calculate(threeWayInput(t, models.RemainderPayer))
	require.NoError(t, err)
	assert.Equal(t, "bob", absorbed(t, res))
}

func TestRemainderFirstListed(t *testing.T) {
	res, err := Calculate(threeWayInput(t, models.RemainderFirstListed))
	require.NoError(t, err)
	assert.Equal(t, "alice", absorbed(t, res))
}

func TestRemainderRandomDeterministic(t *testing.T) {
	first, err := Calculate(threeWayInput(t, models.RemainderRandom))
	require.NoError(t, err)
	winner := absorbed(t, first)

	// Same expense id must always pick the same participant.
	for i := 0; i < 10; i++ {
		again, err := Calculate(threeWayInput(t, models.RemainderRandom))
		require.NoError(t, err)
		assert.Equal(t, winner, absorbed(t, again), "run %d drifted", i)
	}
}

func TestRemainderRandomConserved(t *testing.T) {
	ids := []string{"taxi-1", "taxi-2", "dinner-9", "x"}
	for _, id := range ids {
		in := threeWayInput(t, models.RemainderRandom)
		in.ExpenseID = id
		res, err := Calculate(in)
		require.NoError(t, err)

		sum := decimal.Zero
		for _, amt := range res.Amounts {
			sum = sum.Add(amt)
		}
		assert.True(t, sum.Equal(res.GrandTotal), "expense %s: %s != %s", id, sum, res.GrandTotal)
	}
}
