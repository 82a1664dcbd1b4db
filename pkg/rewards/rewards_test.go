package rewards

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/warbler-labs/rewards-engine/internal/tests"
	"github.com/warbler-labs/rewards-engine/pkg/backerRewards"
	"github.com/warbler-labs/rewards-engine/pkg/communityRewards"
	"github.com/warbler-labs/rewards-engine/pkg/contractCaller"
	"github.com/warbler-labs/rewards-engine/pkg/merkleDistributor"
	"github.com/warbler-labs/rewards-engine/pkg/stakingRewards"
	"github.com/warbler-labs/rewards-engine/pkg/types"
)

const (
	holder          = "0xCdEf000000000000000000000000000000000003"
	directAddr      = "0x0000000000000000000000000000000000000d01"
	launchTime      = uint64(1_700_000_000)
	summaryBlockNum = uint64(900)
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixture wires one direct distributor plus the community, staking, and
// backer aggregators over shared fakes.
type fixture struct {
	caller      *tests.FakeContractCaller
	eventSource *tests.FakeEventSource
	catalog     *merkleDistributor.GrantCatalog
	aggregator  *SummaryAggregator
}

func newFixture(directGrants []*merkleDistributor.GrantInfo) *fixture {
	l := zap.NewNop()
	cc := tests.NewFakeContractCaller()
	es := tests.NewFakeEventSource()

	catalog := merkleDistributor.NewGrantCatalog(l)
	catalog.AddVerifiedPayload(merkleDistributor.DistributorKind_Direct, &merkleDistributor.MerkleInfo{
		MerkleRoot: "0x00",
		Grants:     directGrants,
	})

	distributors := []*merkleDistributor.Distributor{
		merkleDistributor.NewDistributor(merkleDistributor.DistributorKind_Direct, directAddr, catalog, cc, l),
	}
	community := communityRewards.NewAggregator(cc, es, catalog, map[string]merkleDistributor.DistributorKind{}, l)
	staking := stakingRewards.NewAggregator(cc, es, l)
	backer := backerRewards.NewAggregator(cc, l)

	return &fixture{
		caller:      cc,
		eventSource: es,
		catalog:     catalog,
		aggregator:  NewSummaryAggregator(distributors, community, staking, backer, launchTime, nil, l),
	}
}

func Test_SummaryForAddress(t *testing.T) {
	ctx := context.Background()
	block := types.BlockInfo{Number: summaryBlockNum, Timestamp: launchTime}

	t.Run("empty portfolio yields zero totals with all sources present", func(t *testing.T) {
		f := newFixture(nil)

		summary, err := f.aggregator.SummaryForAddress(ctx, holder, block)
		assert.Nil(t, err)

		assert.True(t, summary.Claimable.IsZero())
		assert.True(t, summary.Unvested.IsZero())
		assert.True(t, summary.Granted.IsZero())
		assert.NotEmpty(t, summary.RefreshId)

		sources := make([]string, 0, summary.Items.Len())
		for pair := summary.Items.Oldest(); pair != nil; pair = pair.Next() {
			sources = append(sources, pair.Key)
			assert.True(t, pair.Value.Granted.IsZero())
		}
		assert.Equal(t, []string{
			string(merkleDistributor.DistributorKind_Direct),
			Source_CommunityRewards,
			Source_StakingRewards,
			Source_BackerRewards,
		}, sources)
	})

	t.Run("combined portfolio sums every source", func(t *testing.T) {
		f := newFixture([]*merkleDistributor.GrantInfo{
			{
				Index:   0,
				Account: holder,
				Reason:  "flight_academy",
				Grant:   merkleDistributor.GrantDetails{Amount: "300"},
			},
		})

		// One realized community rewards grant: 200 claimable, 100 unvested.
		f.caller.SetOwned(contractCaller.NFTContract_CommunityRewards, holder, 1)
		f.caller.CommunityGrants[1] = &contractCaller.CommunityRewardsGrant{
			TokenId:      1,
			TotalGranted: dec("300"),
			StartTime:    launchTime - 1000,
			EndTime:      launchTime + 1000,
		}
		f.caller.Claimable[1] = dec("200")

		// One staking position at its checkpoint: 400.71 claimable, 28.89
		// not yet vested.
		f.caller.SetOwned(contractCaller.NFTContract_StakingRewards, holder, 2)
		f.caller.StakedPositions[2] = &contractCaller.StakedPosition{
			TokenId: 2,
			Amount:  dec("5000"),
			Rewards: contractCaller.StoredPositionRewards{
				TotalUnvested: dec("28.89"),
				TotalVested:   dec("400.71"),
				TotalClaimed:  decimal.Zero,
				StartTime:     launchTime - 1000,
				EndTime:       launchTime + 1000,
			},
		}
		f.caller.EarnRates[2] = dec("2")
		f.caller.LastCheckpoint = launchTime

		// One pool token with 100 claimable backer rewards.
		f.caller.SetOwned(contractCaller.NFTContract_PoolTokens, holder, 3)
		f.caller.PoolTokenInfos[3] = &contractCaller.PoolTokenInfo{PoolTokenId: 3, Pool: "0xpool", Tranche: 2}
		f.caller.BackerTokenInfos[3] = &contractCaller.BackerRewardsTokenInfo{
			PoolTokenId:          3,
			ClaimableBackersOnly: dec("100"),
		}

		summary, err := f.aggregator.SummaryForAddress(ctx, holder, block)
		assert.Nil(t, err)

		assert.Equal(t, "1000.71", summary.Claimable.String())
		assert.Equal(t, "128.89", summary.Unvested.String())
		assert.Equal(t, "1129.6", summary.Granted.String())
	})

	t.Run("totals equal the column sums of the items", func(t *testing.T) {
		f := newFixture([]*merkleDistributor.GrantInfo{
			{
				Index:   0,
				Account: holder,
				Reason:  "goldfinch_investment",
				Grant:   merkleDistributor.GrantDetails{Amount: "2500"},
			},
		})
		f.caller.SetOwned(contractCaller.NFTContract_PoolTokens, holder, 4)
		f.caller.PoolTokenInfos[4] = &contractCaller.PoolTokenInfo{PoolTokenId: 4, Pool: "0xpool", Tranche: 2}
		f.caller.BackerTokenInfos[4] = &contractCaller.BackerRewardsTokenInfo{
			PoolTokenId:               4,
			ClaimableBackersOnly:      dec("17"),
			ClaimedSeniorPoolMatching: dec("3"),
		}

		summary, err := f.aggregator.SummaryForAddress(ctx, holder, block)
		assert.Nil(t, err)

		claimable, unvested, granted := decimal.Zero, decimal.Zero, decimal.Zero
		for pair := summary.Items.Oldest(); pair != nil; pair = pair.Next() {
			claimable = claimable.Add(pair.Value.Claimable)
			unvested = unvested.Add(pair.Value.Unvested)
			granted = granted.Add(pair.Value.Granted)
		}
		assert.True(t, summary.Claimable.Equal(claimable))
		assert.True(t, summary.Unvested.Equal(unvested))
		assert.True(t, summary.Granted.Equal(granted))
	})

	t.Run("grants for other addresses do not leak into the summary", func(t *testing.T) {
		f := newFixture([]*merkleDistributor.GrantInfo{
			{
				Index:   0,
				Account: "0x000000000000000000000000000000000000beef",
				Reason:  "flight_academy",
				Grant:   merkleDistributor.GrantDetails{Amount: "9999"},
			},
		})

		summary, err := f.aggregator.SummaryForAddress(ctx, holder, block)
		assert.Nil(t, err)
		assert.True(t, summary.Granted.IsZero())
	})

	t.Run("source failure fails the refresh", func(t *testing.T) {
		f := newFixture(nil)
		// Owned community token without a stored grant behind it.
		f.caller.SetOwned(contractCaller.NFTContract_CommunityRewards, holder, 77)

		_, err := f.aggregator.SummaryForAddress(ctx, holder, block)
		assert.NotNil(t, err)
	})
}
