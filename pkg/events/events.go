package events

import (
	"context"
)

// ContractKey identifies a contract the event source knows how to query.
type ContractKey string

const (
	ContractKey_MerkleDistributor       ContractKey = "merkleDistributor"
	ContractKey_MerkleDirectDistributor ContractKey = "merkleDirectDistributor"
	ContractKey_BackerMerkleDistributor ContractKey = "backerMerkleDistributor"
	ContractKey_StakingRewards          ContractKey = "stakingRewards"
)

// Event is a decoded log record. Args holds both indexed and non-indexed
// event arguments keyed by their ABI names.
type Event struct {
	TransactionHash  string
	TransactionIndex uint64
	BlockNumber      uint64
	LogIndex         uint64
	Address          string
	EventName        string
	Args             map[string]interface{}
}

// ArgUint64 reads a numeric event argument, tolerating the handful of types
// log decoding produces.
func (e *Event) ArgUint64(name string) (uint64, bool) {
	v, ok := e.Args[name]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		return uint64(n), true
	case interface{ Uint64() uint64 }:
		// *big.Int and friends
		return n.Uint64(), true
	default:
		return 0, false
	}
}

// IEventSource is the narrow read-only event accessor the engine consumes.
// Implementations query logs up to and including toBlock.
type IEventSource interface {
	QueryEvents(ctx context.Context, contractKey ContractKey, eventNames []string, filter map[string]interface{}, toBlock uint64) ([]*Event, error)
}
