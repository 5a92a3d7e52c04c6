package calculator

import (
	"hash/fnv"
	"math/rand"

	"github.com/tripledger/tripledger/internal/models"
)

// remainderRecipient picks the single participant who absorbs the rounding
// remainder. Every mode is deterministic for a given input; RANDOM is seeded
// from a stable hash of the expense id so repeated runs on the same expense
// always pick the same participant.
func (l *ledger) remainderRecipient(in Input, mode models.RemainderDistribution) (string, error) {
	switch mode {
	case models.RemainderLargestShare:
		return l.largestShareParticipant(), nil

	case models.RemainderPayer:
		return in.PayerID, nil

	case models.RemainderFirstListed:
		// Roster is sorted, so the first participant with any allocation is
		// the lexicographically smallest.
		for _, p := range l.roster {
			if !l.unroundedTotal(p).IsZero() {
				return p, nil
			}
		}
		return l.roster[0], nil

	case models.RemainderRandom:
		candidates := l.allocatedParticipants()
		h := fnv.New64a()
		h.Write([]byte(in.ExpenseID))
		rng := rand.New(rand.NewSource(int64(h.Sum64())))
		return candidates[rng.Intn(len(candidates))], nil
	}

	return "", models.Validationf("allocation", "unknown remainder distribution: %q", mode)
}

// largestShareParticipant returns the participant with the largest unrounded
// item subtotal, ties broken by the lexicographically smallest id. Roster
// order already sorts ids, so strict GreaterThan keeps the earlier winner on
// a tie.
func (l *ledger) largestShareParticipant() string {
	best := l.roster[0]
	for _, p := range l.roster[1:] {
		if l.itemSub[p].GreaterThan(l.itemSub[best]) {
			best = p
		}
	}
	return best
}

// allocatedParticipants returns the sorted participants with a non-zero
// unrounded total, falling back to the full roster when every total is zero.
func (l *ledger) allocatedParticipants() []string {
	var out []string
	for _, p := range l.roster {
		if !l.unroundedTotal(p).IsZero() {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = l.roster
	}
	return out
}
