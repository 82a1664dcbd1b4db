package merkleDistributor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warbler-labs/rewards-engine/pkg/contractCaller"
	"github.com/warbler-labs/rewards-engine/pkg/types"
	"github.com/warbler-labs/rewards-engine/pkg/utils"
	"github.com/warbler-labs/rewards-engine/pkg/vesting"
)

// Distributor is one deployed distributor contract paired with its published
// grant catalog. Direct/vesting and standard/backer variants differ only in
// this configuration value.
type Distributor struct {
	Kind            DistributorKind
	ContractAddress string

	catalog *GrantCatalog
	caller  contractCaller.IContractCaller
	logger  *zap.Logger
}

func NewDistributor(
	kind DistributorKind,
	contractAddress string,
	catalog *GrantCatalog,
	cc contractCaller.IContractCaller,
	l *zap.Logger,
) *Distributor {
	return &Distributor{
		Kind:            kind,
		ContractAddress: contractAddress,
		catalog:         catalog,
		caller:          cc,
		logger:          l,
	}
}

// ResolvedGrant is one grant of the caller's, placed in its acceptance bucket
// with its computed amounts.
//
// For an accepted vesting grant the authoritative amounts live on the minted
// community rewards grant; the resolver reports only Granted for it and
// leaves Claimable/Unvested zero so those amounts are not counted twice.
type ResolvedGrant struct {
	Grant     *GrantInfo
	Kind      DistributorKind
	Accepted  bool
	Claimable decimal.Decimal
	Unvested  decimal.Decimal
	Granted   decimal.Decimal
	Claimed   decimal.Decimal
}

// ReasonTotals is the claimable/unvested/granted sum for one reason family.
type ReasonTotals struct {
	Reason    string
	Claimable decimal.Decimal
	Unvested  decimal.Decimal
	Granted   decimal.Decimal
}

// Resolution is the distributor-level view for one address at one block.
type Resolution struct {
	Accepted    []*ResolvedGrant
	NotAccepted []*ResolvedGrant
	ByReason    map[string]*ReasonTotals
	Claimable   decimal.Decimal
	Unvested    decimal.Decimal
	Granted     decimal.Decimal
}

// ResolveGrants partitions the published grant list for this distributor into
// the accepted and not-accepted buckets for the given address and computes
// amounts for each branch. launchTime is the hypothetical acceptance time
// used to preview vesting on not-yet-accepted vesting grants.
func (d *Distributor) ResolveGrants(
	ctx context.Context,
	address string,
	currentBlock types.BlockInfo,
	launchTime uint64,
) (*Resolution, error) {
	info, ok := d.catalog.Info(d.Kind).Value()
	if !ok {
		return nil, errors.Errorf("grant catalog for '%s' is not loaded", d.Kind)
	}

	mine := utils.Filter(info.Grants, func(g *GrantInfo) bool {
		return utils.AreAddressesEqual(g.Account, address)
	})

	res := &Resolution{
		Accepted:    make([]*ResolvedGrant, 0),
		NotAccepted: make([]*ResolvedGrant, 0),
		ByReason:    make(map[string]*ReasonTotals),
		Claimable:   decimal.Zero,
		Unvested:    decimal.Zero,
		Granted:     decimal.Zero,
	}

	for _, grant := range mine {
		accepted, err := d.caller.IsGrantAccepted(ctx, d.ContractAddress, grant.Index, currentBlock.Number)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read acceptance for grant %d", grant.Index)
		}

		resolved, err := d.resolveGrant(grant, accepted, currentBlock, launchTime)
		if err != nil {
			return nil, err
		}

		if accepted {
			res.Accepted = append(res.Accepted, resolved)
		} else {
			res.NotAccepted = append(res.NotAccepted, resolved)
		}

		totals, ok := res.ByReason[grant.Reason]
		if !ok {
			totals = &ReasonTotals{
				Reason:    grant.Reason,
				Claimable: decimal.Zero,
				Unvested:  decimal.Zero,
				Granted:   decimal.Zero,
			}
			res.ByReason[grant.Reason] = totals
		}
		totals.Claimable = totals.Claimable.Add(resolved.Claimable)
		totals.Unvested = totals.Unvested.Add(resolved.Unvested)
		totals.Granted = totals.Granted.Add(resolved.Granted)

		res.Claimable = res.Claimable.Add(resolved.Claimable)
		res.Unvested = res.Unvested.Add(resolved.Unvested)
		res.Granted = res.Granted.Add(resolved.Granted)
	}

	return res, nil
}

func (d *Distributor) resolveGrant(
	grant *GrantInfo,
	accepted bool,
	currentBlock types.BlockInfo,
	launchTime uint64,
) (*ResolvedGrant, error) {
	amount, err := grant.Amount()
	if err != nil {
		return nil, errors.Wrapf(err, "grant %d", grant.Index)
	}

	resolved := &ResolvedGrant{
		Grant:     grant,
		Kind:      d.Kind,
		Accepted:  accepted,
		Claimable: decimal.Zero,
		Unvested:  decimal.Zero,
		Granted:   decimal.Zero,
		Claimed:   decimal.Zero,
	}

	switch {
	case accepted && d.Kind.Vesting():
		// Amounts come from the minted community rewards grant.
		return resolved, nil
	case accepted:
		// A direct grant pays out in full at acceptance.
		resolved.Granted = amount
		resolved.Claimed = amount
		return resolved, nil
	case d.Kind.Vesting():
		schedule := vesting.OptimisticSchedule(
			launchTime,
			grant.Grant.VestingLength,
			grant.Grant.CliffLength,
			grant.Grant.VestingInterval,
		)
		vested := vesting.TotalVestedAt(amount, schedule, currentBlock.Timestamp)
		resolved.Claimable = vested
		resolved.Unvested = amount.Sub(vested)
		resolved.Granted = amount
		return resolved, nil
	default:
		// Direct grants have no vesting: the full amount is claimable the
		// moment the grant is accepted.
		resolved.Claimable = amount
		resolved.Granted = amount
		return resolved, nil
	}
}
