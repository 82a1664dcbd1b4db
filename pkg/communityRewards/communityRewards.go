// Package communityRewards aggregates the realized (post-acceptance) vesting
// grants an address holds as community rewards tokens.
package communityRewards

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warbler-labs/rewards-engine/pkg/contractCaller"
	"github.com/warbler-labs/rewards-engine/pkg/events"
	"github.com/warbler-labs/rewards-engine/pkg/loadable"
	"github.com/warbler-labs/rewards-engine/pkg/merkleDistributor"
	"github.com/warbler-labs/rewards-engine/pkg/types"
)

// ErrAmbiguousAcceptance is returned when more than one GrantAccepted event
// correlates to a single community rewards token. The at-most-one assumption
// is a hard precondition: silently picking one event would mislabel where the
// reward came from, so the whole aggregation aborts instead.
var ErrAmbiguousAcceptance = errors.New("multiple GrantAccepted events correlate to one token")

// ReasonDirectIssuance labels a grant with no correlating acceptance event.
// This is a real possibility: the rewards contract can issue a grant directly
// without going through any distributor.
const ReasonDirectIssuance = "direct_issuance"

// Grant is one realized community rewards grant with its derived amounts.
// Invariant: Claimed + Claimable + Unvested == Granted.
type Grant struct {
	TokenId uint64
	Stored  *contractCaller.CommunityRewardsGrant

	// Acceptance is the correlated GrantAccepted event, if one was found.
	Acceptance loadable.Loadable[*events.Event]
	Reason     string

	Claimable decimal.Decimal
	Claimed   decimal.Decimal
	Vested    decimal.Decimal
	Unvested  decimal.Decimal
	Granted   decimal.Decimal
}

type Aggregator struct {
	caller      contractCaller.IContractCaller
	eventSource events.IEventSource
	catalog     *merkleDistributor.GrantCatalog
	// distributorKinds maps distributor contract addresses (lowercased) to
	// their catalog kind, for resolving grant reasons from acceptance events.
	distributorKinds map[string]merkleDistributor.DistributorKind
	logger           *zap.Logger
}

func NewAggregator(
	cc contractCaller.IContractCaller,
	es events.IEventSource,
	catalog *merkleDistributor.GrantCatalog,
	distributorKinds map[string]merkleDistributor.DistributorKind,
	l *zap.Logger,
) *Aggregator {
	lowered := make(map[string]merkleDistributor.DistributorKind, len(distributorKinds))
	for addr, kind := range distributorKinds {
		lowered[strings.ToLower(addr)] = kind
	}
	return &Aggregator{
		caller:           cc,
		eventSource:      es,
		catalog:          catalog,
		distributorKinds: lowered,
		logger:           l,
	}
}

// GrantsForAddress builds the realized grant list for an address at a block.
// Tokens are enumerated by current ownership, so transferred-in grants are
// included and transferred-away ones are not.
func (a *Aggregator) GrantsForAddress(ctx context.Context, address string, currentBlock types.BlockInfo) ([]*Grant, error) {
	tokenIds, err := contractCaller.OwnedTokens(ctx, a.caller, contractCaller.NFTContract_CommunityRewards, address, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrap(err, "failed to enumerate community rewards tokens")
	}
	if len(tokenIds) == 0 {
		return []*Grant{}, nil
	}

	acceptanceEvents, err := a.queryAcceptanceEvents(ctx, currentBlock.Number)
	if err != nil {
		return nil, err
	}

	grants := make([]*Grant, 0, len(tokenIds))
	for _, tokenId := range tokenIds {
		grant, err := a.buildGrant(ctx, tokenId, acceptanceEvents, currentBlock)
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, nil
}

func (a *Aggregator) queryAcceptanceEvents(ctx context.Context, toBlock uint64) ([]*events.Event, error) {
	keys := []events.ContractKey{
		events.ContractKey_MerkleDistributor,
		events.ContractKey_BackerMerkleDistributor,
	}
	all := make([]*events.Event, 0)
	for _, key := range keys {
		evts, err := a.eventSource.QueryEvents(ctx, key, []string{events.EventName_GrantAccepted}, nil, toBlock)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to query GrantAccepted events for '%s'", key)
		}
		all = append(all, evts...)
	}
	return all, nil
}

func (a *Aggregator) buildGrant(
	ctx context.Context,
	tokenId uint64,
	acceptanceEvents []*events.Event,
	currentBlock types.BlockInfo,
) (*Grant, error) {
	stored, err := a.caller.GetCommunityRewardsGrant(ctx, tokenId, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read grant for token %d", tokenId)
	}
	claimable, err := a.caller.GetClaimableRewards(ctx, tokenId, currentBlock.Number)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read claimable rewards for token %d", tokenId)
	}

	grant := &Grant{
		TokenId:    tokenId,
		Stored:     stored,
		Acceptance: loadable.NotLoaded[*events.Event](),
		Reason:     ReasonDirectIssuance,
		Claimable:  claimable,
		Claimed:    stored.TotalClaimed,
	}

	grant.Vested = stored.TotalClaimed.Add(claimable)
	if stored.RevokedAt > 0 {
		// Revocation forfeits the unvested remainder.
		grant.Unvested = decimal.Zero
	} else {
		grant.Unvested = stored.TotalGranted.Sub(grant.Vested)
	}
	grant.Granted = grant.Vested.Add(grant.Unvested)

	if err := a.correlateAcceptance(grant, acceptanceEvents); err != nil {
		return nil, err
	}
	return grant, nil
}

// correlateAcceptance attaches the GrantAccepted event minted for this token,
// resolving the airdrop reason from the distributor's catalog. A missing
// event degrades to the generic direct-issuance label; more than one is a
// fatal invariant violation.
func (a *Aggregator) correlateAcceptance(grant *Grant, acceptanceEvents []*events.Event) error {
	var matched *events.Event
	for _, e := range acceptanceEvents {
		eventTokenId, ok := e.ArgUint64("tokenId")
		if !ok || eventTokenId != grant.TokenId {
			continue
		}
		if matched != nil {
			return errors.Wrapf(ErrAmbiguousAcceptance, "token %d", grant.TokenId)
		}
		matched = e
	}

	if matched == nil {
		a.logger.Sugar().Warnw("No GrantAccepted event correlates to community rewards token; labeling as direct issuance",
			zap.Uint64("tokenId", grant.TokenId),
		)
		return nil
	}

	grant.Acceptance = loadable.Loaded(matched)
	kind, ok := a.distributorKinds[strings.ToLower(matched.Address)]
	if !ok {
		a.logger.Sugar().Warnw("GrantAccepted event from unrecognized distributor",
			zap.Uint64("tokenId", grant.TokenId),
			zap.String("address", matched.Address),
		)
		return nil
	}
	index, ok := matched.ArgUint64("index")
	if !ok {
		return nil
	}
	if info := a.catalog.Grant(kind, index); info != nil {
		grant.Reason = info.Reason
	}
	return nil
}
