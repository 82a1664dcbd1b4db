// Package rewards composes the per-source aggregators into a single portfolio
// summary for an address at a block.
package rewards

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warbler-labs/rewards-engine/internal/metrics"
	"github.com/warbler-labs/rewards-engine/internal/metrics/metricsTypes"
	"github.com/warbler-labs/rewards-engine/pkg/backerRewards"
	"github.com/warbler-labs/rewards-engine/pkg/communityRewards"
	"github.com/warbler-labs/rewards-engine/pkg/merkleDistributor"
	"github.com/warbler-labs/rewards-engine/pkg/stakingRewards"
	"github.com/warbler-labs/rewards-engine/pkg/types"
)

const (
	Source_CommunityRewards = "communityRewards"
	Source_StakingRewards   = "stakingRewards"
	Source_BackerRewards    = "backerRewards"
)

// SummaryItem is the contribution of one reward source, with its per-source
// detail attached. Exactly one of the detail fields is populated, matching
// the source.
type SummaryItem struct {
	Source string `json:"source"`

	Claimable decimal.Decimal `json:"claimable"`
	Claimed   decimal.Decimal `json:"claimed"`
	Unvested  decimal.Decimal `json:"unvested"`
	Granted   decimal.Decimal `json:"granted"`

	Resolution *merkleDistributor.Resolution `json:"resolution,omitempty"`
	Grants     []*communityRewards.Grant     `json:"grants,omitempty"`
	Positions  []*stakingRewards.Position    `json:"positions,omitempty"`
	PoolTokens []*backerRewards.TokenRewards `json:"poolTokens,omitempty"`
}

// Summary is the portfolio-level rewards view. Its totals are the column sums
// of its items, so adding or removing a source never changes how the others
// are counted.
type Summary struct {
	RefreshId string          `json:"refreshId"`
	Address   string          `json:"address"`
	Block     types.BlockInfo `json:"block"`

	Claimable decimal.Decimal `json:"claimable"`
	Unvested  decimal.Decimal `json:"unvested"`
	Granted   decimal.Decimal `json:"granted"`

	Items *orderedmap.OrderedMap[string, *SummaryItem] `json:"items"`
}

type SummaryAggregator struct {
	distributors []*merkleDistributor.Distributor
	community    *communityRewards.Aggregator
	staking      *stakingRewards.Aggregator
	backer       *backerRewards.Aggregator

	// launchTime is the hypothetical acceptance time for unaccepted vesting
	// grants.
	launchTime uint64

	sink   *metrics.MetricsSink
	logger *zap.Logger
}

// NewSummaryAggregator wires the per-source aggregators together. sink may be
// nil when metrics are not configured.
func NewSummaryAggregator(
	distributors []*merkleDistributor.Distributor,
	community *communityRewards.Aggregator,
	staking *stakingRewards.Aggregator,
	backer *backerRewards.Aggregator,
	launchTime uint64,
	sink *metrics.MetricsSink,
	l *zap.Logger,
) *SummaryAggregator {
	return &SummaryAggregator{
		distributors: distributors,
		community:    community,
		staking:      staking,
		backer:       backer,
		launchTime:   launchTime,
		sink:         sink,
		logger:       l,
	}
}

// SummaryForAddress fans out to every reward source concurrently and folds
// the results into one summary. All sources read at the same block, so the
// summary is a consistent snapshot; any source failing fails the refresh.
func (sa *SummaryAggregator) SummaryForAddress(ctx context.Context, address string, currentBlock types.BlockInfo) (*Summary, error) {
	refreshId := uuid.New().String()
	startedAt := time.Now()

	sa.logger.Sugar().Debugw("Refreshing rewards summary",
		zap.String("refreshId", refreshId),
		zap.String("address", address),
		zap.Uint64("blockNumber", currentBlock.Number),
	)

	resolutions := make([]*merkleDistributor.Resolution, len(sa.distributors))
	var grants []*communityRewards.Grant
	var positions []*stakingRewards.Position
	var poolTokens []*backerRewards.TokenRewards

	grp, grpCtx := errgroup.WithContext(ctx)
	for i, d := range sa.distributors {
		grp.Go(func() error {
			res, err := d.ResolveGrants(grpCtx, address, currentBlock, sa.launchTime)
			if err != nil {
				return err
			}
			resolutions[i] = res
			return nil
		})
	}
	grp.Go(func() error {
		var err error
		grants, err = sa.community.GrantsForAddress(grpCtx, address, currentBlock)
		return err
	})
	grp.Go(func() error {
		var err error
		positions, err = sa.staking.PositionsForAddress(grpCtx, address, currentBlock)
		return err
	})
	grp.Go(func() error {
		var err error
		poolTokens, err = sa.backer.RewardsForAddress(grpCtx, address, currentBlock)
		return err
	})
	if err := grp.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{
		RefreshId: refreshId,
		Address:   address,
		Block:     currentBlock,
		Claimable: decimal.Zero,
		Unvested:  decimal.Zero,
		Granted:   decimal.Zero,
		Items:     orderedmap.New[string, *SummaryItem](),
	}

	for i, d := range sa.distributors {
		summary.addItem(distributorItem(d, resolutions[i]))
	}
	summary.addItem(communityItem(grants))
	summary.addItem(stakingItem(positions))
	summary.addItem(backerItem(poolTokens))

	sa.emitMetrics(currentBlock, time.Since(startedAt))

	sa.logger.Sugar().Debugw("Refreshed rewards summary",
		zap.String("refreshId", refreshId),
		zap.String("claimable", summary.Claimable.String()),
		zap.String("unvested", summary.Unvested.String()),
		zap.String("granted", summary.Granted.String()),
	)
	return summary, nil
}

func (s *Summary) addItem(item *SummaryItem) {
	s.Items.Set(item.Source, item)
	s.Claimable = s.Claimable.Add(item.Claimable)
	s.Unvested = s.Unvested.Add(item.Unvested)
	s.Granted = s.Granted.Add(item.Granted)
}

func distributorItem(d *merkleDistributor.Distributor, res *merkleDistributor.Resolution) *SummaryItem {
	item := &SummaryItem{
		Source:     string(d.Kind),
		Claimable:  res.Claimable,
		Claimed:    decimal.Zero,
		Unvested:   res.Unvested,
		Granted:    res.Granted,
		Resolution: res,
	}
	// res.Granted already counts accepted direct grants; only the claimed
	// column needs summing here.
	for _, g := range res.Accepted {
		item.Claimed = item.Claimed.Add(g.Claimed)
	}
	return item
}

func communityItem(grants []*communityRewards.Grant) *SummaryItem {
	item := &SummaryItem{
		Source:    Source_CommunityRewards,
		Claimable: decimal.Zero,
		Claimed:   decimal.Zero,
		Unvested:  decimal.Zero,
		Granted:   decimal.Zero,
		Grants:    grants,
	}
	for _, g := range grants {
		item.Claimable = item.Claimable.Add(g.Claimable)
		item.Claimed = item.Claimed.Add(g.Claimed)
		item.Unvested = item.Unvested.Add(g.Unvested)
		item.Granted = item.Granted.Add(g.Granted)
	}
	return item
}

func stakingItem(positions []*stakingRewards.Position) *SummaryItem {
	item := &SummaryItem{
		Source:    Source_StakingRewards,
		Claimable: decimal.Zero,
		Claimed:   decimal.Zero,
		Unvested:  decimal.Zero,
		Granted:   decimal.Zero,
		Positions: positions,
	}
	for _, p := range positions {
		item.Claimable = item.Claimable.Add(p.Claimable)
		item.Claimed = item.Claimed.Add(p.Claimed)
		item.Unvested = item.Unvested.Add(p.Unvested)
		item.Granted = item.Granted.Add(p.Granted)
	}
	return item
}

func backerItem(poolTokens []*backerRewards.TokenRewards) *SummaryItem {
	item := &SummaryItem{
		Source:     Source_BackerRewards,
		Claimable:  decimal.Zero,
		Claimed:    decimal.Zero,
		Unvested:   decimal.Zero,
		Granted:    decimal.Zero,
		PoolTokens: poolTokens,
	}
	for _, tr := range poolTokens {
		item.Claimable = item.Claimable.Add(tr.Claimable)
		item.Claimed = item.Claimed.Add(tr.Claimed)
		item.Unvested = item.Unvested.Add(tr.Unvested)
		item.Granted = item.Granted.Add(tr.Granted)
	}
	return item
}

func (sa *SummaryAggregator) emitMetrics(currentBlock types.BlockInfo, elapsed time.Duration) {
	if sa.sink == nil {
		return
	}
	if err := sa.sink.Incr(metricsTypes.Metric_Incr_SummaryRefresh, nil, 1); err != nil {
		sa.logger.Sugar().Warnw("Failed to emit summary refresh metric", zap.Error(err))
	}
	if err := sa.sink.Gauge(metricsTypes.Metric_Gauge_CurrentBlockHeight, float64(currentBlock.Number), nil); err != nil {
		sa.logger.Sugar().Warnw("Failed to emit block height metric", zap.Error(err))
	}
	if err := sa.sink.Timing(metricsTypes.Metric_Timing_SummaryRefreshDuration, elapsed, nil); err != nil {
		sa.logger.Sugar().Warnw("Failed to emit refresh duration metric", zap.Error(err))
	}
}
