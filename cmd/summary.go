package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/warbler-labs/rewards-engine/internal/config"
	"github.com/warbler-labs/rewards-engine/internal/logger"
	"github.com/warbler-labs/rewards-engine/internal/metrics"
	"github.com/warbler-labs/rewards-engine/internal/metrics/metricsTypes"
	"github.com/warbler-labs/rewards-engine/pkg/backerRewards"
	"github.com/warbler-labs/rewards-engine/pkg/communityRewards"
	"github.com/warbler-labs/rewards-engine/pkg/contractCaller/sequentialContractCaller"
	"github.com/warbler-labs/rewards-engine/pkg/events"
	"github.com/warbler-labs/rewards-engine/pkg/merkleDistributor"
	"github.com/warbler-labs/rewards-engine/pkg/rewards"
	"github.com/warbler-labs/rewards-engine/pkg/stakingRewards"
	"github.com/warbler-labs/rewards-engine/pkg/types"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [address]",
	Short: "Print the rewards summary for an address as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initSummaryCmd(cmd)
		cfg := config.NewConfig()
		ctx := context.Background()

		l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: cfg.Debug})

		deployments, ok := cfg.GetDeploymentsForChain()
		if !ok {
			l.Sugar().Fatalw("No recorded deployments for chain", zap.String("chain", string(cfg.Chain)))
		}

		metricsClients, err := metrics.InitMetricsSinksFromConfig(cfg, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to setup metrics clients", zap.Error(err))
		}
		sink, err := metrics.NewMetricsSink(&metrics.MetricsSinkConfig{}, metricsClients)
		if err != nil {
			l.Sugar().Fatalw("Failed to setup metrics sink", zap.Error(err))
		}

		client, err := ethclient.DialContext(ctx, cfg.EthereumRpcConfig.BaseUrl)
		if err != nil {
			l.Sugar().Fatalw("Failed to connect to ethereum node", zap.Error(err))
		}

		caller, err := sequentialContractCaller.NewSequentialContractCaller(client, sequentialContractCaller.ContractAddresses{
			CommunityRewards: deployments.CommunityRewards,
			StakingRewards:   deployments.StakingRewards,
			BackerRewards:    deployments.BackerRewards,
			PoolTokens:       deployments.PoolTokens,
		}, sink, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to setup contract caller", zap.Error(err))
		}

		eventSource, err := events.NewContractEventSource(client, map[events.ContractKey]string{
			events.ContractKey_StakingRewards:          deployments.StakingRewards,
			events.ContractKey_MerkleDistributor:       deployments.MerkleDistributor,
			events.ContractKey_BackerMerkleDistributor: deployments.BackerMerkleDistributor,
		}, 0, l)
		if err != nil {
			l.Sugar().Fatalw("Failed to setup event source", zap.Error(err))
		}

		catalog := merkleDistributor.NewGrantCatalog(l)
		sources := make([]merkleDistributor.CatalogSource, 0, len(cfg.CatalogLocations))
		for _, loc := range cfg.CatalogLocations {
			sources = append(sources, merkleDistributor.CatalogSource{
				Kind:     merkleDistributor.DistributorKind(loc.Kind),
				Location: loc.Location,
			})
		}
		if err := catalog.LoadAll(sources); err != nil {
			sink.Incr(metricsTypes.Metric_Incr_CatalogLoadFailure, nil, 1) //nolint:errcheck
			l.Sugar().Fatalw("Failed to load grant catalogs", zap.Error(err))
		}
		sink.Incr(metricsTypes.Metric_Incr_CatalogLoad, nil, 1) //nolint:errcheck

		distributorAddresses := map[merkleDistributor.DistributorKind]string{
			merkleDistributor.DistributorKind_Vesting:       deployments.MerkleDistributor,
			merkleDistributor.DistributorKind_Direct:        deployments.MerkleDirectDistributor,
			merkleDistributor.DistributorKind_BackerVesting: deployments.BackerMerkleDistributor,
			merkleDistributor.DistributorKind_BackerDirect:  deployments.BackerMerkleDirectDistributor,
		}
		distributors := make([]*merkleDistributor.Distributor, 0, len(sources))
		for _, src := range sources {
			address, ok := distributorAddresses[src.Kind]
			if !ok {
				l.Sugar().Fatalw("Unknown distributor kind in catalog config", zap.String("kind", string(src.Kind)))
			}
			distributors = append(distributors, merkleDistributor.NewDistributor(src.Kind, address, catalog, caller, l))
		}

		community := communityRewards.NewAggregator(caller, eventSource, catalog, map[string]merkleDistributor.DistributorKind{
			deployments.MerkleDistributor:       merkleDistributor.DistributorKind_Vesting,
			deployments.BackerMerkleDistributor: merkleDistributor.DistributorKind_BackerVesting,
		}, l)
		staking := stakingRewards.NewAggregator(caller, eventSource, l)
		backer := backerRewards.NewAggregator(caller, l)

		aggregator := rewards.NewSummaryAggregator(distributors, community, staking, backer, deployments.TokenLaunchTime, sink, l)

		currentBlock, err := resolveBlock(ctx, client, viper.GetUint64(config.KebabToSnakeCase("block-number")))
		if err != nil {
			l.Sugar().Fatalw("Failed to resolve block", zap.Error(err))
		}

		summary, err := aggregator.SummaryForAddress(ctx, args[0], currentBlock)
		if err != nil {
			l.Sugar().Fatalw("Failed to build rewards summary", zap.Error(err))
		}

		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			l.Sugar().Fatalw("Failed to encode summary", zap.Error(err))
		}
		fmt.Println(string(out))
	},
}

// resolveBlock pins the snapshot block: an explicit number when given,
// otherwise the node's latest. The header supplies the timestamp the vesting
// math treats as "now".
func resolveBlock(ctx context.Context, client *ethclient.Client, blockNumber uint64) (types.BlockInfo, error) {
	if blockNumber == 0 {
		latest, err := client.BlockNumber(ctx)
		if err != nil {
			return types.BlockInfo{}, err
		}
		blockNumber = latest
	}
	header, err := client.HeaderByNumber(ctx, new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return types.BlockInfo{}, err
	}
	return types.BlockInfo{Number: blockNumber, Timestamp: header.Time}, nil
}

func initSummaryCmd(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err := viper.BindPFlag(config.KebabToSnakeCase(f.Name), f); err != nil {
			fmt.Printf("Failed to bind flag '%s' - %+v\n", f.Name, err)
		}
		if err := viper.BindEnv(f.Name); err != nil {
			fmt.Printf("Failed to bind env '%s' - %+v\n", f.Name, err)
		}
	})
}
