package config

import (
	"strings"

	"github.com/spf13/viper"
)

// ENV_PREFIX scopes every environment variable the engine reads, e.g.
// REWARDS_ENGINE_ETHEREUM_RPC_URL.
const ENV_PREFIX = "REWARDS_ENGINE"

// Flag/config key constants. Flags use kebab-case and dots; viper keys use
// the snake_cased form (see KebabToSnakeCase).
const (
	EthereumRpcUrl = "ethereum.rpc-url"

	RewardsTokenLaunchTime = "rewards.token-launch-time"

	CatalogMerkleDistributorUrl             = "catalog.merkle-distributor-url"
	CatalogMerkleDirectDistributorUrl       = "catalog.merkle-direct-distributor-url"
	CatalogBackerMerkleDistributorUrl       = "catalog.backer-merkle-distributor-url"
	CatalogBackerMerkleDirectDistributorUrl = "catalog.backer-merkle-direct-distributor-url"

	DataDogStatsdEnabled    = "datadog.statsd.enabled"
	DataDogStatsdUrl        = "datadog.statsd.url"
	DataDogStatsdSampleRate = "datadog.statsd.sample-rate"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"
)

type Chain string

const (
	Chain_Mainnet Chain = "mainnet"
	Chain_Testnet Chain = "testnet"
	Chain_Local   Chain = "local"
)

// Deployments is the set of contract addresses the engine reads from on one
// chain, plus the protocol token launch time used as the hypothetical
// acceptance time for unaccepted vesting grants.
type Deployments struct {
	MerkleDistributor             string
	MerkleDirectDistributor       string
	BackerMerkleDistributor       string
	BackerMerkleDirectDistributor string
	CommunityRewards              string
	StakingRewards                string
	BackerRewards                 string
	PoolTokens                    string
	SeniorPool                    string

	TokenLaunchTime uint64
}

var chainDeployments = map[Chain]Deployments{
	Chain_Mainnet: {
		MerkleDistributor:             "0x0f306e3f6b2d5ae820d33c284659b29847972d9a",
		MerkleDirectDistributor:       "0x7766e86584069cf5d1223323d89486e95d9a8c22",
		BackerMerkleDistributor:       "0x8e968a4542bccca30ed3bc7d6dc23b7c38ce1987",
		BackerMerkleDirectDistributor: "0x3b1fc5c3a24bbb3ccb1c2dfc60fb93c5b322ea1f",
		CommunityRewards:              "0x09e483797ee93c22926a30e5e4d6d3f0956eb425",
		StakingRewards:                "0x55026a08a1cebf4d1ed6b4cbc1ac83d6269b9e10",
		BackerRewards:                 "0xb2f6cd5b3e95d6e9b027c4be60facf8d9d1b769e",
		PoolTokens:                    "0x33c8464f2f2c84bb36c6d3503e2ae3cf5da44fa9",
		SeniorPool:                    "0x164a20f1d09c2c8f1791e1d7d19a8f06db822180",
		TokenLaunchTime:               1641920400,
	},
	Chain_Testnet: {
		MerkleDistributor:             "0x40f287d1f99a950ac0ed29c8bd80b1f9c9e51171",
		MerkleDirectDistributor:       "0x5f20b1fed25b9e9ee50e8c1b1c2076c0dbb8042b",
		BackerMerkleDistributor:       "0x77a592c2276a3b3a5f9c0a51a36da817a2db0f1b",
		BackerMerkleDirectDistributor: "0x2f1f43b6d5d808e840e6cbce5cf41e1e9a6b6a6c",
		CommunityRewards:              "0x51b2c37a57c5d1b51fe1ca8ad1a34d0b1bfa2f0e",
		StakingRewards:                "0x4e5d9b093986d864331d88e0a13a616e1d508768",
		BackerRewards:                 "0x3b32a5a4f59e01d0fb6e8eed8bcb6acac50e6254",
		PoolTokens:                    "0x53df6f11d847f740b1a98c0f292c2dd1e36b0971",
		SeniorPool:                    "0x7f2d0c1c4a2f52b1f4b3a3f6bbbd803a98cd1b2e",
		TokenLaunchTime:               1637787600,
	},
}

// CatalogLocation pairs a distributor kind key with where its published grant
// payload lives (https URL or local file path).
type CatalogLocation struct {
	Kind     string
	Location string
}

type DataDogConfig struct {
	StatsdConfig struct {
		Enabled    bool
		Url        string
		SampleRate float64
	}
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

type EthereumRpcConfig struct {
	BaseUrl string
}

type Config struct {
	Debug bool
	Chain Chain

	EthereumRpcConfig EthereumRpcConfig
	DataDogConfig     DataDogConfig
	PrometheusConfig  PrometheusConfig

	CatalogLocations []CatalogLocation

	// TokenLaunchTimeOverride, when non-zero, replaces the chain's recorded
	// launch time. Used for local chains and tests.
	TokenLaunchTimeOverride uint64
}

// KebabToSnakeCase converts a flag name to the form viper and the environment
// use, e.g. "ethereum.rpc-url" -> "ethereum_rpc_url".
func KebabToSnakeCase(s string) string {
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, ".", "_")
}

// NewConfig materializes a Config from viper, which cmd wiring has already
// bound to flags and REWARDS_ENGINE_* environment variables.
func NewConfig() *Config {
	c := &Config{
		Debug: viper.GetBool("debug"),
		Chain: ParseChain(viper.GetString("chain")),

		TokenLaunchTimeOverride: viper.GetUint64(KebabToSnakeCase(RewardsTokenLaunchTime)),
	}

	c.EthereumRpcConfig.BaseUrl = viper.GetString(KebabToSnakeCase(EthereumRpcUrl))

	c.DataDogConfig.StatsdConfig.Enabled = viper.GetBool(KebabToSnakeCase(DataDogStatsdEnabled))
	c.DataDogConfig.StatsdConfig.Url = viper.GetString(KebabToSnakeCase(DataDogStatsdUrl))
	c.DataDogConfig.StatsdConfig.SampleRate = viper.GetFloat64(KebabToSnakeCase(DataDogStatsdSampleRate))

	c.PrometheusConfig.Enabled = viper.GetBool(KebabToSnakeCase(PrometheusEnabled))
	c.PrometheusConfig.Port = viper.GetInt(KebabToSnakeCase(PrometheusPort))

	c.CatalogLocations = catalogLocationsFromViper()

	return c
}

func catalogLocationsFromViper() []CatalogLocation {
	keys := []struct {
		kind string
		flag string
	}{
		{"merkleDistributor", CatalogMerkleDistributorUrl},
		{"merkleDirectDistributor", CatalogMerkleDirectDistributorUrl},
		{"backerMerkleDistributor", CatalogBackerMerkleDistributorUrl},
		{"backerMerkleDirectDistributor", CatalogBackerMerkleDirectDistributorUrl},
	}
	locations := make([]CatalogLocation, 0, len(keys))
	for _, k := range keys {
		loc := viper.GetString(KebabToSnakeCase(k.flag))
		if loc != "" {
			locations = append(locations, CatalogLocation{Kind: k.kind, Location: loc})
		}
	}
	return locations
}

func ParseChain(c string) Chain {
	switch c {
	case "mainnet":
		return Chain_Mainnet
	case "testnet":
		return Chain_Testnet
	default:
		return Chain_Local
	}
}

// GetDeploymentsForChain resolves the contract address book for the
// configured chain. Local chains have no recorded deployments.
func (c *Config) GetDeploymentsForChain() (Deployments, bool) {
	d, ok := chainDeployments[c.Chain]
	if ok && c.TokenLaunchTimeOverride != 0 {
		d.TokenLaunchTime = c.TokenLaunchTimeOverride
	}
	return d, ok
}
