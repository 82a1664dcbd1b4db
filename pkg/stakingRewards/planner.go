package stakingRewards

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Unstaking is one leg of an unstake plan: how much to withdraw from which
// position.
type Unstaking struct {
	TokenId uint64
	Amount  decimal.Decimal
}

// OptimalPositionsToUnstake selects which positions to unstake from to free
// the requested amount. Locked positions are skipped; the remainder are
// drained largest-first so the plan touches as few positions as possible.
// Errors when the unlocked positions cannot cover the amount.
func OptimalPositionsToUnstake(positions []*Position, amount decimal.Decimal, at uint64) ([]Unstaking, error) {
	unlocked := make([]*Position, 0, len(positions))
	for _, p := range positions {
		if !p.Locked(at) && p.Stored.Amount.IsPositive() {
			unlocked = append(unlocked, p)
		}
	}
	sort.Slice(unlocked, func(i, j int) bool {
		if !unlocked[i].Stored.Amount.Equal(unlocked[j].Stored.Amount) {
			return unlocked[i].Stored.Amount.GreaterThan(unlocked[j].Stored.Amount)
		}
		return unlocked[i].TokenId < unlocked[j].TokenId
	})

	plan := make([]Unstaking, 0, len(unlocked))
	remaining := amount
	for _, p := range unlocked {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(p.Stored.Amount, remaining)
		plan = append(plan, Unstaking{TokenId: p.TokenId, Amount: take})
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		return nil, errors.Errorf("insufficient unlocked stake: short %s", remaining.String())
	}
	return plan, nil
}
