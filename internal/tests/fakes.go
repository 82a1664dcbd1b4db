package tests

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/warbler-labs/rewards-engine/pkg/contractCaller"
	"github.com/warbler-labs/rewards-engine/pkg/events"
)

// FakeContractCaller implements contractCaller.IContractCaller from in-memory
// fixtures. Zero-value fields behave as empty chain state.
type FakeContractCaller struct {
	// AcceptedGrants is keyed by distributor address (lowercased) -> index.
	AcceptedGrants map[string]map[uint64]bool

	CommunityGrants  map[uint64]*contractCaller.CommunityRewardsGrant
	Claimable        map[uint64]decimal.Decimal
	StakedPositions  map[uint64]*contractCaller.StakedPosition
	EarnRates        map[uint64]decimal.Decimal
	LastCheckpoint   uint64
	BackerTokenInfos map[uint64]*contractCaller.BackerRewardsTokenInfo
	PoolTokenInfos   map[uint64]*contractCaller.PoolTokenInfo

	// Owned is keyed by NFT contract -> owner (lowercased) -> tokenIds.
	Owned map[contractCaller.NFTContract]map[string][]uint64
}

var _ contractCaller.IContractCaller = (*FakeContractCaller)(nil)

func NewFakeContractCaller() *FakeContractCaller {
	return &FakeContractCaller{
		AcceptedGrants:   make(map[string]map[uint64]bool),
		CommunityGrants:  make(map[uint64]*contractCaller.CommunityRewardsGrant),
		Claimable:        make(map[uint64]decimal.Decimal),
		StakedPositions:  make(map[uint64]*contractCaller.StakedPosition),
		EarnRates:        make(map[uint64]decimal.Decimal),
		BackerTokenInfos: make(map[uint64]*contractCaller.BackerRewardsTokenInfo),
		PoolTokenInfos:   make(map[uint64]*contractCaller.PoolTokenInfo),
		Owned:            make(map[contractCaller.NFTContract]map[string][]uint64),
	}
}

func (f *FakeContractCaller) SetOwned(contract contractCaller.NFTContract, owner string, tokenIds ...uint64) {
	if f.Owned[contract] == nil {
		f.Owned[contract] = make(map[string][]uint64)
	}
	f.Owned[contract][lower(owner)] = tokenIds
}

func (f *FakeContractCaller) SetAccepted(distributor string, index uint64, accepted bool) {
	key := lower(distributor)
	if f.AcceptedGrants[key] == nil {
		f.AcceptedGrants[key] = make(map[uint64]bool)
	}
	f.AcceptedGrants[key][index] = accepted
}

func (f *FakeContractCaller) IsGrantAccepted(ctx context.Context, distributor string, index uint64, blockNumber uint64) (bool, error) {
	return f.AcceptedGrants[lower(distributor)][index], nil
}

func (f *FakeContractCaller) GetCommunityRewardsGrant(ctx context.Context, tokenId uint64, blockNumber uint64) (*contractCaller.CommunityRewardsGrant, error) {
	g, ok := f.CommunityGrants[tokenId]
	if !ok {
		return nil, errors.Errorf("no grant for token %d", tokenId)
	}
	return g, nil
}

func (f *FakeContractCaller) GetClaimableRewards(ctx context.Context, tokenId uint64, blockNumber uint64) (decimal.Decimal, error) {
	return f.Claimable[tokenId], nil
}

func (f *FakeContractCaller) GetStakedPosition(ctx context.Context, tokenId uint64, blockNumber uint64) (*contractCaller.StakedPosition, error) {
	p, ok := f.StakedPositions[tokenId]
	if !ok {
		return nil, errors.Errorf("no staked position for token %d", tokenId)
	}
	return p, nil
}

func (f *FakeContractCaller) GetPositionCurrentEarnRate(ctx context.Context, tokenId uint64, blockNumber uint64) (decimal.Decimal, error) {
	return f.EarnRates[tokenId], nil
}

func (f *FakeContractCaller) GetRewardsLastCheckpoint(ctx context.Context, blockNumber uint64) (uint64, error) {
	return f.LastCheckpoint, nil
}

func (f *FakeContractCaller) GetBackerRewardsTokenInfo(ctx context.Context, poolTokenId uint64, blockNumber uint64) (*contractCaller.BackerRewardsTokenInfo, error) {
	i, ok := f.BackerTokenInfos[poolTokenId]
	if !ok {
		return nil, errors.Errorf("no backer rewards info for pool token %d", poolTokenId)
	}
	return i, nil
}

func (f *FakeContractCaller) GetPoolTokenInfo(ctx context.Context, poolTokenId uint64, blockNumber uint64) (*contractCaller.PoolTokenInfo, error) {
	i, ok := f.PoolTokenInfos[poolTokenId]
	if !ok {
		return nil, errors.Errorf("no pool token info for token %d", poolTokenId)
	}
	return i, nil
}

func (f *FakeContractCaller) BalanceOf(ctx context.Context, contract contractCaller.NFTContract, owner string, blockNumber uint64) (uint64, error) {
	return uint64(len(f.Owned[contract][lower(owner)])), nil
}

func (f *FakeContractCaller) TokenOfOwnerByIndex(ctx context.Context, contract contractCaller.NFTContract, owner string, index uint64, blockNumber uint64) (uint64, error) {
	owned := f.Owned[contract][lower(owner)]
	if index >= uint64(len(owned)) {
		return 0, errors.Errorf("owner index %d out of range", index)
	}
	return owned[index], nil
}

// FakeEventSource serves canned events, filtered by name and block ceiling.
type FakeEventSource struct {
	Events map[events.ContractKey][]*events.Event
}

var _ events.IEventSource = (*FakeEventSource)(nil)

func NewFakeEventSource() *FakeEventSource {
	return &FakeEventSource{Events: make(map[events.ContractKey][]*events.Event)}
}

func (f *FakeEventSource) AddEvent(key events.ContractKey, e *events.Event) {
	f.Events[key] = append(f.Events[key], e)
}

func (f *FakeEventSource) QueryEvents(ctx context.Context, contractKey events.ContractKey, eventNames []string, filter map[string]interface{}, toBlock uint64) ([]*events.Event, error) {
	wanted := make(map[string]bool, len(eventNames))
	for _, n := range eventNames {
		wanted[n] = true
	}
	out := make([]*events.Event, 0)
	for _, e := range f.Events[contractKey] {
		if e.BlockNumber > toBlock {
			continue
		}
		if len(wanted) > 0 && !wanted[e.EventName] {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func lower(s string) string {
	return strings.ToLower(s)
}
