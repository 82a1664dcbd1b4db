package contractCaller

import (
	"context"

	"github.com/shopspring/decimal"
)

// NFTContract selects which of the three enumerable NFT contracts an
// ownership query targets.
type NFTContract string

const (
	NFTContract_CommunityRewards NFTContract = "communityRewards"
	NFTContract_StakingRewards   NFTContract = "stakingRewards"
	NFTContract_PoolTokens       NFTContract = "poolTokens"
)

// CommunityRewardsGrant is the on-chain grant tuple for a community rewards
// token. RevokedAt of zero means the grant has not been revoked.
type CommunityRewardsGrant struct {
	TokenId         uint64
	TotalGranted    decimal.Decimal
	TotalClaimed    decimal.Decimal
	StartTime       uint64
	EndTime         uint64
	CliffLength     uint64
	VestingInterval uint64
	RevokedAt       uint64
}

// StoredPositionRewards is the checkpointed rewards snapshot the staking
// contract keeps per position.
type StoredPositionRewards struct {
	TotalUnvested         decimal.Decimal
	TotalVested           decimal.Decimal
	TotalPreviouslyVested decimal.Decimal
	TotalClaimed          decimal.Decimal
	StartTime             uint64
	EndTime               uint64
}

// StakedPosition is the stored state of a staking position NFT.
type StakedPosition struct {
	TokenId            uint64
	Amount             decimal.Decimal
	Rewards            StoredPositionRewards
	LeverageMultiplier decimal.Decimal
	LockedUntil        uint64
}

// BackerRewardsTokenInfo carries the four per-pool-token reward figures:
// the backer-only component and the senior-pool-matching component, each
// split into claimable and already claimed.
type BackerRewardsTokenInfo struct {
	PoolTokenId                 uint64
	ClaimableBackersOnly        decimal.Decimal
	ClaimableSeniorPoolMatching decimal.Decimal
	ClaimedBackersOnly          decimal.Decimal
	ClaimedSeniorPoolMatching   decimal.Decimal
}

// PoolTokenInfo describes a pool token NFT: which borrower pool it belongs to
// and its junior-tranche principal.
type PoolTokenInfo struct {
	PoolTokenId     uint64
	Pool            string
	Tranche         uint64
	PrincipalAmount decimal.Decimal
}

// IContractCaller is the narrow read-only surface of the reward contracts the
// engine depends on. Every method is parameterized by an explicit block
// number; implementations must not fall back to "latest".
type IContractCaller interface {
	// IsGrantAccepted reads the acceptance flag for a grant index on a
	// distributor contract.
	IsGrantAccepted(ctx context.Context, distributor string, index uint64, blockNumber uint64) (bool, error)

	// GetCommunityRewardsGrant reads the grant tuple backing a community
	// rewards token.
	GetCommunityRewardsGrant(ctx context.Context, tokenId uint64, blockNumber uint64) (*CommunityRewardsGrant, error)

	// GetClaimableRewards reads the currently claimable amount for a
	// community rewards token.
	GetClaimableRewards(ctx context.Context, tokenId uint64, blockNumber uint64) (decimal.Decimal, error)

	// GetStakedPosition reads the stored state of a staking position.
	GetStakedPosition(ctx context.Context, tokenId uint64, blockNumber uint64) (*StakedPosition, error)

	// GetPositionCurrentEarnRate reads the current rewards earn rate of a
	// staking position, in base units per second.
	GetPositionCurrentEarnRate(ctx context.Context, tokenId uint64, blockNumber uint64) (decimal.Decimal, error)

	// GetRewardsLastCheckpoint reads the staking contract's last global
	// rewards checkpoint timestamp.
	GetRewardsLastCheckpoint(ctx context.Context, blockNumber uint64) (uint64, error)

	// GetBackerRewardsTokenInfo reads the backer rewards figures for a pool
	// token.
	GetBackerRewardsTokenInfo(ctx context.Context, poolTokenId uint64, blockNumber uint64) (*BackerRewardsTokenInfo, error)

	// GetPoolTokenInfo reads the pool token tuple for a pool token.
	GetPoolTokenInfo(ctx context.Context, poolTokenId uint64, blockNumber uint64) (*PoolTokenInfo, error)

	// BalanceOf returns how many tokens of the given NFT contract the owner
	// holds.
	BalanceOf(ctx context.Context, contract NFTContract, owner string, blockNumber uint64) (uint64, error)

	// TokenOfOwnerByIndex enumerates the owner's tokens on the given NFT
	// contract.
	TokenOfOwnerByIndex(ctx context.Context, contract NFTContract, owner string, index uint64, blockNumber uint64) (uint64, error)
}

// OwnedTokens enumerates every token the owner currently holds on the given
// NFT contract via balanceOf + tokenOfOwnerByIndex. Enumerating ownership
// this way (instead of replaying events) keeps transferred tokens attributed
// to their current holder.
func OwnedTokens(ctx context.Context, cc IContractCaller, contract NFTContract, owner string, blockNumber uint64) ([]uint64, error) {
	balance, err := cc.BalanceOf(ctx, contract, owner, blockNumber)
	if err != nil {
		return nil, err
	}
	tokens := make([]uint64, 0, balance)
	for i := uint64(0); i < balance; i++ {
		tokenId, err := cc.TokenOfOwnerByIndex(ctx, contract, owner, i, blockNumber)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tokenId)
	}
	return tokens, nil
}
