// Package backerRewards aggregates rewards earned on junior-tranche pool
// tokens. Backer rewards have no vesting schedule: each pool token carries a
// backers-only component and a senior-pool-matching component, both either
// claimable now or already claimed.
package backerRewards

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warbler-labs/rewards-engine/pkg/contractCaller"
	"github.com/warbler-labs/rewards-engine/pkg/types"
)

// TokenRewards is the reward state of a single pool token.
// Unvested is structurally zero; Granted == Claimable + Claimed.
type TokenRewards struct {
	PoolTokenId uint64
	Pool        string
	Backer      *contractCaller.BackerRewardsTokenInfo

	Claimable decimal.Decimal
	Claimed   decimal.Decimal
	Unvested  decimal.Decimal
	Granted   decimal.Decimal
}

type Aggregator struct {
	caller contractCaller.IContractCaller
	logger *zap.Logger
}

func NewAggregator(cc contractCaller.IContractCaller, l *zap.Logger) *Aggregator {
	return &Aggregator{
		caller: cc,
		logger: l,
	}
}

// RewardsForAddress builds the per-pool-token rewards for an address at a
// block. Pool tokens are enumerated by current NFT ownership; tokens in pools
// without backer rewards report zero amounts rather than being omitted, so
// the caller sees the full portfolio.
func (a *Aggregator) RewardsForAddress(ctx context.Context, address string, currentBlock types.BlockInfo) ([]*TokenRewards, error) {
	poolTokenIds, err := contractCaller.OwnedTokens(ctx, a.caller, contractCaller.NFTContract_PoolTokens, address, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate pool tokens")
	}

	rewards := make([]*TokenRewards, 0, len(poolTokenIds))
	for _, poolTokenId := range poolTokenIds {
		tr, err := a.buildTokenRewards(ctx, poolTokenId, currentBlock)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, tr)
	}
	return rewards, nil
}

func (a *Aggregator) buildTokenRewards(ctx context.Context, poolTokenId uint64, currentBlock types.BlockInfo) (*TokenRewards, error) {
	poolToken, err := a.caller.GetPoolTokenInfo(ctx, poolTokenId, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read pool token %d", poolTokenId)
	}
	backer, err := a.caller.GetBackerRewardsTokenInfo(ctx, poolTokenId, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read backer rewards for pool token %d", poolTokenId)
	}

	tr := &TokenRewards{
		PoolTokenId: poolTokenId,
		Pool:        poolToken.Pool,
		Backer:      backer,
		Claimable:   backer.ClaimableBackersOnly.Add(backer.ClaimableSeniorPoolMatching),
		Claimed:     backer.ClaimedBackersOnly.Add(backer.ClaimedSeniorPoolMatching),
		Unvested:    decimal.Zero,
	}
	tr.Granted = tr.Claimable.Add(tr.Claimed)
	return tr, nil
}
