package merkleDistributor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/warbler-labs/rewards-engine/internal/tests"
	"github.com/warbler-labs/rewards-engine/pkg/types"
)

const (
	launchTime         = uint64(1_700_000_000)
	oneYear            = uint64(31536000)
	distributorAddress = "0xAAAA000000000000000000000000000000000001"
)

func catalogWith(kind DistributorKind, grants ...*GrantInfo) *GrantCatalog {
	gc := NewGrantCatalog(zap.NewNop())
	gc.AddVerifiedPayload(kind, &MerkleInfo{
		MerkleRoot: "0x00",
		Grants:     grants,
	})
	return gc
}

func Test_ResolveGrants(t *testing.T) {
	ctx := context.Background()
	l := zap.NewNop()

	t.Run("A not-yet-accepted vesting grant at the midpoint is half claimable", func(t *testing.T) {
		grant := &GrantInfo{
			Index:   0,
			Account: testAccountA,
			Reason:  "flight_academy",
			Grant:   GrantDetails{Amount: "1000", VestingLength: oneYear},
		}
		gc := catalogWith(DistributorKind_Vesting, grant)
		cc := tests.NewFakeContractCaller()
		d := NewDistributor(DistributorKind_Vesting, distributorAddress, gc, cc, l)

		block := types.BlockInfo{Number: 100, Timestamp: launchTime + oneYear/2}
		res, err := d.ResolveGrants(ctx, testAccountA, block, launchTime)
		assert.Nil(t, err)

		assert.Len(t, res.NotAccepted, 1)
		assert.Len(t, res.Accepted, 0)
		assert.Equal(t, "500", res.Claimable.String())
		assert.Equal(t, "500", res.Unvested.String())
		assert.Equal(t, "1000", res.Granted.String())
	})

	t.Run("A direct airdrop is immediately fully claimable with nothing unvested", func(t *testing.T) {
		grant := &GrantInfo{
			Index:   4,
			Account: testAccountA,
			Reason:  "flight_academy",
			Grant:   GrantDetails{Amount: "2500"},
		}
		gc := catalogWith(DistributorKind_Direct, grant)
		cc := tests.NewFakeContractCaller()
		d := NewDistributor(DistributorKind_Direct, distributorAddress, gc, cc, l)

		block := types.BlockInfo{Number: 100, Timestamp: launchTime}
		res, err := d.ResolveGrants(ctx, testAccountA, block, launchTime)
		assert.Nil(t, err)

		assert.Equal(t, "2500", res.Claimable.String())
		assert.Equal(t, "0", res.Unvested.String())
		assert.Equal(t, "2500", res.Granted.String())
	})

	t.Run("An accepted direct grant counts as granted and claimed, not claimable", func(t *testing.T) {
		grant := &GrantInfo{
			Index:   4,
			Account: testAccountA,
			Reason:  "flight_academy",
			Grant:   GrantDetails{Amount: "2500"},
		}
		gc := catalogWith(DistributorKind_Direct, grant)
		cc := tests.NewFakeContractCaller()
		cc.SetAccepted(distributorAddress, 4, true)
		d := NewDistributor(DistributorKind_Direct, distributorAddress, gc, cc, l)

		block := types.BlockInfo{Number: 100, Timestamp: launchTime}
		res, err := d.ResolveGrants(ctx, testAccountA, block, launchTime)
		assert.Nil(t, err)

		assert.Len(t, res.Accepted, 1)
		assert.Equal(t, "0", res.Claimable.String())
		assert.Equal(t, "2500", res.Granted.String())
		assert.Equal(t, "2500", res.Accepted[0].Claimed.String())
	})

	t.Run("An accepted vesting grant defers its amounts to the community rewards grant", func(t *testing.T) {
		grant := &GrantInfo{
			Index:   2,
			Account: testAccountA,
			Reason:  "liquidity_provider",
			Grant:   GrantDetails{Amount: "1000", VestingLength: oneYear},
		}
		gc := catalogWith(DistributorKind_Vesting, grant)
		cc := tests.NewFakeContractCaller()
		cc.SetAccepted(distributorAddress, 2, true)
		d := NewDistributor(DistributorKind_Vesting, distributorAddress, gc, cc, l)

		block := types.BlockInfo{Number: 100, Timestamp: launchTime + 100}
		res, err := d.ResolveGrants(ctx, testAccountA, block, launchTime)
		assert.Nil(t, err)

		assert.Len(t, res.Accepted, 1)
		assert.Equal(t, "0", res.Claimable.String())
		assert.Equal(t, "0", res.Unvested.String())
		assert.Equal(t, "0", res.Granted.String())
	})

	t.Run("Grants are matched case-insensitively on the account", func(t *testing.T) {
		grant := &GrantInfo{
			Index:   0,
			Account: strings.ToUpper(testAccountA),
			Reason:  "flight_academy",
			Grant:   GrantDetails{Amount: "100"},
		}
		gc := catalogWith(DistributorKind_Direct, grant)
		cc := tests.NewFakeContractCaller()
		d := NewDistributor(DistributorKind_Direct, distributorAddress, gc, cc, l)

		block := types.BlockInfo{Number: 1, Timestamp: launchTime}
		res, err := d.ResolveGrants(ctx, strings.ToLower(testAccountA), block, launchTime)
		assert.Nil(t, err)
		assert.Len(t, res.NotAccepted, 1)
	})

	t.Run("Other accounts' grants are excluded", func(t *testing.T) {
		grant := &GrantInfo{
			Index:   0,
			Account: testAccountB,
			Reason:  "flight_academy",
			Grant:   GrantDetails{Amount: "100"},
		}
		gc := catalogWith(DistributorKind_Direct, grant)
		cc := tests.NewFakeContractCaller()
		d := NewDistributor(DistributorKind_Direct, distributorAddress, gc, cc, l)

		block := types.BlockInfo{Number: 1, Timestamp: launchTime}
		res, err := d.ResolveGrants(ctx, testAccountA, block, launchTime)
		assert.Nil(t, err)
		assert.Len(t, res.Accepted, 0)
		assert.Len(t, res.NotAccepted, 0)
		assert.Equal(t, "0", res.Granted.String())
	})

	t.Run("Totals are grouped by reason family", func(t *testing.T) {
		gc := catalogWith(DistributorKind_Direct,
			&GrantInfo{Index: 0, Account: testAccountA, Reason: "flight_academy", Grant: GrantDetails{Amount: "100"}},
			&GrantInfo{Index: 1, Account: testAccountA, Reason: "flight_academy", Grant: GrantDetails{Amount: "200"}},
			&GrantInfo{Index: 2, Account: testAccountA, Reason: "liquidity_provider", Grant: GrantDetails{Amount: "50"}},
		)
		cc := tests.NewFakeContractCaller()
		d := NewDistributor(DistributorKind_Direct, distributorAddress, gc, cc, l)

		block := types.BlockInfo{Number: 1, Timestamp: launchTime}
		res, err := d.ResolveGrants(ctx, testAccountA, block, launchTime)
		assert.Nil(t, err)

		assert.Equal(t, "300", res.ByReason["flight_academy"].Claimable.String())
		assert.Equal(t, "50", res.ByReason["liquidity_provider"].Claimable.String())
		assert.Equal(t, "350", res.Claimable.String())
	})

	t.Run("A vesting grant before its cliff has nothing claimable", func(t *testing.T) {
		grant := &GrantInfo{
			Index:   0,
			Account: testAccountA,
			Reason:  "goldfinch_investment",
			Grant:   GrantDetails{Amount: "1000", VestingLength: oneYear, CliffLength: oneYear / 2},
		}
		gc := catalogWith(DistributorKind_Vesting, grant)
		cc := tests.NewFakeContractCaller()
		d := NewDistributor(DistributorKind_Vesting, distributorAddress, gc, cc, l)

		block := types.BlockInfo{Number: 1, Timestamp: launchTime + oneYear/2 - 1}
		res, err := d.ResolveGrants(ctx, testAccountA, block, launchTime)
		assert.Nil(t, err)
		assert.Equal(t, "0", res.Claimable.String())
		assert.Equal(t, "1000", res.Unvested.String())
	})
}
