package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/warbler-labs/rewards-engine/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "rewards-engine",
	Short: "Computes claimable, unvested, and granted reward amounts for protocol participants",
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	initConfig(rootCmd)

	rootCmd.PersistentFlags().Bool("debug", false, `"true" or "false"`)
	rootCmd.PersistentFlags().StringP("chain", "c", "mainnet", "The chain to use (mainnet, testnet, local)")

	rootCmd.PersistentFlags().String(config.EthereumRpcUrl, "", `e.g. "http://<hostname>:8545"`)

	rootCmd.PersistentFlags().Uint64(config.RewardsTokenLaunchTime, 0, `Override the protocol token launch time (unix seconds)`)

	rootCmd.PersistentFlags().String(config.CatalogMerkleDistributorUrl, "", `Location of the merkle distributor grant payload (url or file path)`)
	rootCmd.PersistentFlags().String(config.CatalogMerkleDirectDistributorUrl, "", `Location of the merkle direct distributor grant payload`)
	rootCmd.PersistentFlags().String(config.CatalogBackerMerkleDistributorUrl, "", `Location of the backer merkle distributor grant payload`)
	rootCmd.PersistentFlags().String(config.CatalogBackerMerkleDirectDistributorUrl, "", `Location of the backer merkle direct distributor grant payload`)

	rootCmd.PersistentFlags().Bool(config.DataDogStatsdEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().String(config.DataDogStatsdUrl, "", `e.g. "localhost:8125"`)
	rootCmd.PersistentFlags().Float64(config.DataDogStatsdSampleRate, 1.0, `The sample rate to use for statsd metrics`)

	rootCmd.PersistentFlags().Bool(config.PrometheusEnabled, false, `e.g. "true" or "false"`)
	rootCmd.PersistentFlags().Int(config.PrometheusPort, 2112, `The port to run the prometheus server on`)

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(runVersionCmd)

	summaryCmd.PersistentFlags().Uint64("block-number", 0, `Block to read state at (0 means latest)`)

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		key := config.KebabToSnakeCase(f.Name)
		viper.BindPFlag(key, f) //nolint:errcheck
		viper.BindEnv(key)      //nolint:errcheck
	})
}

func initConfig(cmd *cobra.Command) {
	viper.SetEnvPrefix(config.ENV_PREFIX)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.AutomaticEnv()
}
