// Package stakingRewards aggregates the rewards state of an address's staked
// positions. Each position is an NFT with its own checkpointed rewards
// snapshot on the staking contract; on top of that snapshot the aggregator
// layers an optimistic increment covering rewards accrued since the last
// checkpoint, so the caller sees up-to-date amounts before any transaction
// re-checkpoints the position on-chain.
package stakingRewards

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warbler-labs/rewards-engine/pkg/contractCaller"
	"github.com/warbler-labs/rewards-engine/pkg/events"
	"github.com/warbler-labs/rewards-engine/pkg/loadable"
	"github.com/warbler-labs/rewards-engine/pkg/numbers"
	"github.com/warbler-labs/rewards-engine/pkg/types"
	"github.com/warbler-labs/rewards-engine/pkg/vesting"
)

// RewardsIncrement is the optimistic delta applied on top of a stored rewards
// snapshot. Both components are non-negative.
type RewardsIncrement struct {
	// Earned is the total newly accrued amount since the last checkpoint.
	Earned decimal.Decimal
	// Vested is how much of the position's rewards moved from unvested to
	// vested since the checkpoint (including any vesting of the newly
	// earned amount).
	Vested decimal.Decimal
}

// Position is one staking position with its derived reward amounts.
// Invariant: Claimed + Claimable + Unvested == Granted.
type Position struct {
	TokenId uint64
	Stored  *contractCaller.StakedPosition

	// StakedEvent is the originating Staked event for the position, when one
	// was found among the current holder's events. A transferred-in position
	// has no such event for the current holder; that only degrades display
	// metadata, never the amounts.
	StakedEvent loadable.Loadable[*events.Event]

	CurrentEarnRate decimal.Decimal
	Increment       RewardsIncrement

	Claimable decimal.Decimal
	Claimed   decimal.Decimal
	Unvested  decimal.Decimal
	Granted   decimal.Decimal
}

// Locked reports whether the position's stake is still locked at the given
// time. A position stays locked until both its rewards schedule end and any
// explicit lockup have elapsed.
func (p *Position) Locked(at uint64) bool {
	if p.Stored.LockedUntil > 0 {
		return at < p.Stored.LockedUntil
	}
	return at < p.Stored.Rewards.EndTime
}

type Aggregator struct {
	caller      contractCaller.IContractCaller
	eventSource events.IEventSource
	logger      *zap.Logger
}

func NewAggregator(cc contractCaller.IContractCaller, es events.IEventSource, l *zap.Logger) *Aggregator {
	return &Aggregator{
		caller:      cc,
		eventSource: es,
		logger:      l,
	}
}

// PositionsForAddress builds the staking position list for an address at a
// block. Positions are enumerated by current NFT ownership so transfers are
// reflected correctly; an address with no positions yields an empty slice.
func (a *Aggregator) PositionsForAddress(ctx context.Context, address string, currentBlock types.BlockInfo) ([]*Position, error) {
	tokenIds, err := contractCaller.OwnedTokens(ctx, a.caller, contractCaller.NFTContract_StakingRewards, address, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate staking positions")
	}
	if len(tokenIds) == 0 {
		return []*Position{}, nil
	}

	stakedEvents, err := a.queryStakedEvents(ctx, currentBlock.Number)
	if err != nil {
		return nil, err
	}

	lastCheckpoint, err := a.caller.GetRewardsLastCheckpoint(ctx, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read rewards checkpoint")
	}

	positions := make([]*Position, 0, len(tokenIds))
	for _, tokenId := range tokenIds {
		position, err := a.buildPosition(ctx, tokenId, stakedEvents, lastCheckpoint, currentBlock)
		if err != nil {
			return nil, err
		}
		positions = append(positions, position)
	}
	return positions, nil
}

// queryStakedEvents fetches the staking events relevant to position metadata
// and filters out primitive events implied by composite ones, so a
// deposit-and-stake is not seen twice.
func (a *Aggregator) queryStakedEvents(ctx context.Context, toBlock uint64) ([]*events.Event, error) {
	names := []string{
		events.EventName_Staked,
		events.EventName_DepositedAndStaked,
	}
	evts, err := a.eventSource.QueryEvents(ctx, events.ContractKey_StakingRewards, names, nil, toBlock)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query staking events")
	}
	deduped := events.DeduplicateEvents(evts)

	// A composite deposit-and-stake still carries the Staked payload fields,
	// so both event kinds serve as the position's originating event.
	return deduped, nil
}

func (a *Aggregator) buildPosition(
	ctx context.Context,
	tokenId uint64,
	stakedEvents []*events.Event,
	lastCheckpoint uint64,
	currentBlock types.BlockInfo,
) (*Position, error) {
	stored, err := a.caller.GetStakedPosition(ctx, tokenId, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read staked position %d", tokenId)
	}
	earnRate, err := a.caller.GetPositionCurrentEarnRate(ctx, tokenId, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read earn rate for position %d", tokenId)
	}

	position := &Position{
		TokenId:         tokenId,
		Stored:          stored,
		StakedEvent:     loadable.NotLoaded[*events.Event](),
		CurrentEarnRate: earnRate,
	}

	position.Increment = optimisticIncrement(&stored.Rewards, earnRate, lastCheckpoint, currentBlock.Timestamp)

	rewards := &stored.Rewards
	vestedTotal := rewards.TotalVested.Add(position.Increment.Vested)
	position.Claimable = vestedTotal.Sub(rewards.TotalClaimed)
	position.Claimed = rewards.TotalClaimed
	position.Unvested = rewards.TotalUnvested.Add(position.Increment.Earned).Sub(position.Increment.Vested)
	position.Granted = vestedTotal.Add(position.Unvested)

	a.correlateStakedEvent(position, stakedEvents)
	return position, nil
}

// correlateStakedEvent attaches the Staked (or deposit-and-stake) event that
// minted this position, if present among the queried events. Absence is
// expected for transferred-in positions and only logs a warning.
func (a *Aggregator) correlateStakedEvent(position *Position, stakedEvents []*events.Event) {
	for _, e := range stakedEvents {
		eventTokenId, ok := e.ArgUint64("tokenId")
		if ok && eventTokenId == position.TokenId {
			position.StakedEvent = loadable.Loaded(e)
			return
		}
	}
	a.logger.Sugar().Warnw("No Staked event correlates to staking position; lockup metadata degrades to contract state only",
		zap.Uint64("tokenId", position.TokenId),
	)
}

// optimisticIncrement computes the rewards delta between a stored snapshot's
// checkpoint and now. New rewards accrue at the current earn rate and vest
// along the position's schedule. The stored snapshot is always the baseline:
// the schedule only supplies the vesting progress between the checkpoint and
// now, never a re-derived vested total, since the stored value reflects
// contract history (varying earn rates) the schedule alone cannot
// reconstruct. At the checkpoint itself the increment is zero.
func optimisticIncrement(
	rewards *contractCaller.StoredPositionRewards,
	earnRate decimal.Decimal,
	lastCheckpoint uint64,
	now uint64,
) RewardsIncrement {
	increment := RewardsIncrement{Earned: decimal.Zero, Vested: decimal.Zero}
	if now <= lastCheckpoint || lastCheckpoint == 0 {
		return increment
	}

	elapsed := now - lastCheckpoint
	increment.Earned = earnRate.Mul(numbers.DecimalFromUint64(elapsed))

	grantedAfter := rewards.TotalUnvested.Add(rewards.TotalVested).Add(increment.Earned)
	schedule := vesting.Schedule{
		StartTime: rewards.StartTime,
		EndTime:   rewards.EndTime,
	}
	vestedDelta := vesting.TotalVestedAt(grantedAfter, schedule, now).
		Sub(vesting.TotalVestedAt(grantedAfter, schedule, lastCheckpoint))

	increment.Vested = numbers.ClampToRange(
		vestedDelta,
		decimal.Zero,
		rewards.TotalUnvested.Add(increment.Earned),
	)
	return increment
}
