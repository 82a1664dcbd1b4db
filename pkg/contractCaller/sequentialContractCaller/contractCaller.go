// Package sequentialContractCaller implements the engine's contract read
// surface with one eth_call per read, every call pinned to an explicit block
// number.
package sequentialContractCaller

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warbler-labs/rewards-engine/internal/metrics"
	"github.com/warbler-labs/rewards-engine/internal/metrics/metricsTypes"
	"github.com/warbler-labs/rewards-engine/pkg/contractCaller"
)

// ContractAddresses is the address book for the contracts the caller reads.
// Distributor addresses are passed per call instead, since there are four of
// them and the interface already names the target.
type ContractAddresses struct {
	CommunityRewards string
	StakingRewards   string
	BackerRewards    string
	PoolTokens       string
}

type SequentialContractCaller struct {
	client    *ethclient.Client
	addresses ContractAddresses
	sink      *metrics.MetricsSink
	logger    *zap.Logger

	merkleDistributor abi.ABI
	communityRewards  abi.ABI
	stakingRewards    abi.ABI
	backerRewards     abi.ABI
	poolTokens        abi.ABI
	erc721            abi.ABI
}

var _ contractCaller.IContractCaller = (*SequentialContractCaller)(nil)

// NewSequentialContractCaller builds the caller. sink may be nil when metrics
// are not configured.
func NewSequentialContractCaller(client *ethclient.Client, addresses ContractAddresses, sink *metrics.MetricsSink, l *zap.Logger) (*SequentialContractCaller, error) {
	cc := &SequentialContractCaller{
		client:    client,
		addresses: addresses,
		sink:      sink,
		logger:    l,
	}

	for _, a := range []struct {
		json string
		dest *abi.ABI
	}{
		{merkleDistributorAbi, &cc.merkleDistributor},
		{communityRewardsAbi, &cc.communityRewards},
		{stakingRewardsAbi, &cc.stakingRewards},
		{backerRewardsAbi, &cc.backerRewards},
		{poolTokensAbi, &cc.poolTokens},
		{erc721EnumerableAbi, &cc.erc721},
	} {
		parsed, err := abi.JSON(strings.NewReader(a.json))
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse contract abi")
		}
		*a.dest = parsed
	}
	return cc, nil
}

func (cc *SequentialContractCaller) call(
	ctx context.Context,
	address string,
	contractAbi abi.ABI,
	blockNumber uint64,
	method string,
	args ...interface{},
) ([]interface{}, error) {
	contract := bind.NewBoundContract(common.HexToAddress(address), contractAbi, cc.client, nil, nil)

	results := make([]interface{}, 0)
	startedAt := time.Now()
	err := contract.Call(&bind.CallOpts{
		BlockNumber: new(big.Int).SetUint64(blockNumber),
		Context:     ctx,
	}, &results, method, args...)
	if cc.sink != nil {
		//nolint:errcheck
		cc.sink.Timing(metricsTypes.Metric_Timing_ContractCallDuration, time.Since(startedAt), []metricsTypes.MetricsLabel{
			{Name: "method", Value: method},
		})
	}
	if err != nil {
		cc.logger.Sugar().Errorw("Contract call failed",
			zap.String("address", address),
			zap.String("method", method),
			zap.Uint64("blockNumber", blockNumber),
			zap.Error(err),
		)
		return nil, errors.Wrapf(err, "call %s on %s", method, address)
	}
	return results, nil
}

func asBigInt(v interface{}) *big.Int {
	b, ok := v.(*big.Int)
	if !ok {
		return big.NewInt(0)
	}
	return b
}

func asDecimal(v interface{}) decimal.Decimal {
	return decimal.NewFromBigInt(asBigInt(v), 0)
}

func asUint64(v interface{}) uint64 {
	return asBigInt(v).Uint64()
}

func (cc *SequentialContractCaller) IsGrantAccepted(ctx context.Context, distributor string, index uint64, blockNumber uint64) (bool, error) {
	results, err := cc.call(ctx, distributor, cc.merkleDistributor, blockNumber, "isGrantAccepted", new(big.Int).SetUint64(index))
	if err != nil {
		return false, err
	}
	accepted, ok := results[0].(bool)
	if !ok {
		return false, errors.Errorf("unexpected isGrantAccepted result for index %d", index)
	}
	return accepted, nil
}

func (cc *SequentialContractCaller) GetCommunityRewardsGrant(ctx context.Context, tokenId uint64, blockNumber uint64) (*contractCaller.CommunityRewardsGrant, error) {
	results, err := cc.call(ctx, cc.addresses.CommunityRewards, cc.communityRewards, blockNumber, "grants", new(big.Int).SetUint64(tokenId))
	if err != nil {
		return nil, err
	}
	if len(results) != 7 {
		return nil, errors.Errorf("unexpected grants result arity %d", len(results))
	}
	return &contractCaller.CommunityRewardsGrant{
		TokenId:         tokenId,
		TotalGranted:    asDecimal(results[0]),
		TotalClaimed:    asDecimal(results[1]),
		StartTime:       asUint64(results[2]),
		EndTime:         asUint64(results[3]),
		CliffLength:     asUint64(results[4]),
		VestingInterval: asUint64(results[5]),
		RevokedAt:       asUint64(results[6]),
	}, nil
}

func (cc *SequentialContractCaller) GetClaimableRewards(ctx context.Context, tokenId uint64, blockNumber uint64) (decimal.Decimal, error) {
	results, err := cc.call(ctx, cc.addresses.CommunityRewards, cc.communityRewards, blockNumber, "claimableRewards", new(big.Int).SetUint64(tokenId))
	if err != nil {
		return decimal.Zero, err
	}
	return asDecimal(results[0]), nil
}

func (cc *SequentialContractCaller) GetStakedPosition(ctx context.Context, tokenId uint64, blockNumber uint64) (*contractCaller.StakedPosition, error) {
	results, err := cc.call(ctx, cc.addresses.StakingRewards, cc.stakingRewards, blockNumber, "positions", new(big.Int).SetUint64(tokenId))
	if err != nil {
		return nil, err
	}
	if len(results) != 9 {
		return nil, errors.Errorf("unexpected positions result arity %d", len(results))
	}
	return &contractCaller.StakedPosition{
		TokenId: tokenId,
		Amount:  asDecimal(results[0]),
		Rewards: contractCaller.StoredPositionRewards{
			TotalUnvested:         asDecimal(results[1]),
			TotalVested:           asDecimal(results[2]),
			TotalPreviouslyVested: asDecimal(results[3]),
			TotalClaimed:          asDecimal(results[4]),
			StartTime:             asUint64(results[5]),
			EndTime:               asUint64(results[6]),
		},
		LeverageMultiplier: asDecimal(results[7]),
		LockedUntil:        asUint64(results[8]),
	}, nil
}

func (cc *SequentialContractCaller) GetPositionCurrentEarnRate(ctx context.Context, tokenId uint64, blockNumber uint64) (decimal.Decimal, error) {
	results, err := cc.call(ctx, cc.addresses.StakingRewards, cc.stakingRewards, blockNumber, "positionCurrentEarnRate", new(big.Int).SetUint64(tokenId))
	if err != nil {
		return decimal.Zero, err
	}
	return asDecimal(results[0]), nil
}

func (cc *SequentialContractCaller) GetRewardsLastCheckpoint(ctx context.Context, blockNumber uint64) (uint64, error) {
	results, err := cc.call(ctx, cc.addresses.StakingRewards, cc.stakingRewards, blockNumber, "lastUpdateTime")
	if err != nil {
		return 0, err
	}
	return asUint64(results[0]), nil
}

func (cc *SequentialContractCaller) GetBackerRewardsTokenInfo(ctx context.Context, poolTokenId uint64, blockNumber uint64) (*contractCaller.BackerRewardsTokenInfo, error) {
	id := new(big.Int).SetUint64(poolTokenId)

	claimable, err := cc.call(ctx, cc.addresses.BackerRewards, cc.backerRewards, blockNumber, "poolTokenClaimableRewards", id)
	if err != nil {
		return nil, err
	}
	matching, err := cc.call(ctx, cc.addresses.BackerRewards, cc.backerRewards, blockNumber, "stakingRewardsEarnedSinceLastWithdraw", id)
	if err != nil {
		return nil, err
	}
	claimed, err := cc.call(ctx, cc.addresses.BackerRewards, cc.backerRewards, blockNumber, "tokens", id)
	if err != nil {
		return nil, err
	}
	if len(claimed) != 2 {
		return nil, errors.Errorf("unexpected tokens result arity %d", len(claimed))
	}

	return &contractCaller.BackerRewardsTokenInfo{
		PoolTokenId:                 poolTokenId,
		ClaimableBackersOnly:        asDecimal(claimable[0]),
		ClaimableSeniorPoolMatching: asDecimal(matching[0]),
		ClaimedBackersOnly:          asDecimal(claimed[0]),
		ClaimedSeniorPoolMatching:   asDecimal(claimed[1]),
	}, nil
}

func (cc *SequentialContractCaller) GetPoolTokenInfo(ctx context.Context, poolTokenId uint64, blockNumber uint64) (*contractCaller.PoolTokenInfo, error) {
	results, err := cc.call(ctx, cc.addresses.PoolTokens, cc.poolTokens, blockNumber, "getTokenInfo", new(big.Int).SetUint64(poolTokenId))
	if err != nil {
		return nil, err
	}
	if len(results) != 5 {
		return nil, errors.Errorf("unexpected getTokenInfo result arity %d", len(results))
	}
	pool, ok := results[0].(common.Address)
	if !ok {
		return nil, errors.Errorf("unexpected pool address for token %d", poolTokenId)
	}
	return &contractCaller.PoolTokenInfo{
		PoolTokenId:     poolTokenId,
		Pool:            strings.ToLower(pool.Hex()),
		Tranche:         asUint64(results[1]),
		PrincipalAmount: asDecimal(results[2]),
	}, nil
}

func (cc *SequentialContractCaller) nftAddress(contract contractCaller.NFTContract) (string, error) {
	switch contract {
	case contractCaller.NFTContract_CommunityRewards:
		return cc.addresses.CommunityRewards, nil
	case contractCaller.NFTContract_StakingRewards:
		return cc.addresses.StakingRewards, nil
	case contractCaller.NFTContract_PoolTokens:
		return cc.addresses.PoolTokens, nil
	default:
		return "", errors.Errorf("unknown nft contract '%s'", contract)
	}
}

func (cc *SequentialContractCaller) BalanceOf(ctx context.Context, contract contractCaller.NFTContract, owner string, blockNumber uint64) (uint64, error) {
	address, err := cc.nftAddress(contract)
	if err != nil {
		return 0, err
	}
	results, err := cc.call(ctx, address, cc.erc721, blockNumber, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return 0, err
	}
	return asUint64(results[0]), nil
}

func (cc *SequentialContractCaller) TokenOfOwnerByIndex(ctx context.Context, contract contractCaller.NFTContract, owner string, index uint64, blockNumber uint64) (uint64, error) {
	address, err := cc.nftAddress(contract)
	if err != nil {
		return 0, err
	}
	results, err := cc.call(ctx, address, cc.erc721, blockNumber, "tokenOfOwnerByIndex", common.HexToAddress(owner), new(big.Int).SetUint64(index))
	if err != nil {
		return 0, err
	}
	return asUint64(results[0]), nil
}
