package merkleDistributor

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/warbler-labs/rewards-engine/pkg/numbers"
)

// DistributorKind keys a published grant catalog. The backer kinds are the
// same contract shape as the standard ones, deployed at a different address
// with a different published grant set; nothing else differs, so a single
// parameterized Distributor covers the whole matrix.
type DistributorKind string

const (
	DistributorKind_Direct        DistributorKind = "merkleDirectDistributor"
	DistributorKind_Vesting       DistributorKind = "merkleDistributor"
	DistributorKind_BackerDirect  DistributorKind = "backerMerkleDirectDistributor"
	DistributorKind_BackerVesting DistributorKind = "backerMerkleDistributor"
)

// Vesting reports whether grants of this kind mint a time-locked community
// rewards grant on acceptance, as opposed to paying out immediately.
func (k DistributorKind) Vesting() bool {
	return k == DistributorKind_Vesting || k == DistributorKind_BackerVesting
}

// GrantDetails is the grant body inside a published merkle payload. Direct
// grants carry only an amount; vesting grants add the schedule parameters.
type GrantDetails struct {
	Amount          string `json:"amount"`
	VestingLength   uint64 `json:"vestingLength,omitempty"`
	CliffLength     uint64 `json:"cliffLength,omitempty"`
	VestingInterval uint64 `json:"vestingInterval,omitempty"`
}

// GrantInfo is one leaf of a published merkle payload. Created once at
// tree-publication time and never mutated.
type GrantInfo struct {
	Index   uint64       `json:"index"`
	Account string       `json:"account"`
	Reason  string       `json:"reason"`
	Grant   GrantDetails `json:"grant"`
	Proof   []string     `json:"proof"`
}

// Amount returns the grant amount in base units.
func (g *GrantInfo) Amount() (decimal.Decimal, error) {
	return numbers.ParseAmount(g.Grant.Amount)
}

// MerkleInfo is the full published payload for one distributor.
type MerkleInfo struct {
	MerkleRoot  string       `json:"merkleRoot"`
	AmountTotal string       `json:"amountTotal"`
	Grants      []*GrantInfo `json:"grants"`
}

func parseMerkleInfo(data []byte) (*MerkleInfo, error) {
	info := &MerkleInfo{}
	if err := json.Unmarshal(data, info); err != nil {
		return nil, errors.Wrap(err, "failed to decode merkle payload")
	}
	if info.MerkleRoot == "" {
		return nil, errors.New("merkle payload has no root")
	}
	return info, nil
}
