package events

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Event declarations for the contracts the engine listens to. Only the
// events the aggregators consume are declared; undeclared logs are skipped.
const stakingRewardsEventsAbi = `[
  {"type":"event","name":"Staked","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"tokenId","type":"uint256","indexed":true},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"positionType","type":"uint8","indexed":false},
    {"name":"baseTokenExchangeRate","type":"uint256","indexed":false}
  ]},
  {"type":"event","name":"DepositedAndStaked","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"depositedAmount","type":"uint256","indexed":false},
    {"name":"tokenId","type":"uint256","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}
  ]},
  {"type":"event","name":"Unstaked","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"tokenId","type":"uint256","indexed":true},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"positionType","type":"uint8","indexed":false}
  ]},
  {"type":"event","name":"UnstakedAndWithdrew","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"usdcReceivedAmount","type":"uint256","indexed":false},
    {"name":"tokenId","type":"uint256","indexed":true},
    {"name":"amount","type":"uint256","indexed":false}
  ]},
  {"type":"event","name":"UnstakedAndWithdrewMultiple","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"usdcReceivedAmount","type":"uint256","indexed":false},
    {"name":"tokenIds","type":"uint256[]","indexed":false},
    {"name":"amounts","type":"uint256[]","indexed":false}
  ]},
  {"type":"event","name":"RewardPaid","inputs":[
    {"name":"user","type":"address","indexed":true},
    {"name":"tokenId","type":"uint256","indexed":true},
    {"name":"reward","type":"uint256","indexed":false}
  ]}
]`

const merkleDistributorEventsAbi = `[
  {"type":"event","name":"GrantAccepted","inputs":[
    {"name":"tokenId","type":"uint256","indexed":true},
    {"name":"index","type":"uint256","indexed":true},
    {"name":"account","type":"address","indexed":true},
    {"name":"amount","type":"uint256","indexed":false},
    {"name":"vestingLength","type":"uint256","indexed":false},
    {"name":"cliffLength","type":"uint256","indexed":false},
    {"name":"vestingInterval","type":"uint256","indexed":false}
  ]}
]`

// ContractEventSource reads decoded events straight from an Ethereum node via
// eth_getLogs. Each contract key maps to a deployed address plus the ABI of
// the events that contract emits.
type ContractEventSource struct {
	client *ethclient.Client
	logger *zap.Logger

	// startBlock bounds queries below; logs before the protocol deployment
	// cannot be relevant and some providers reject unbounded ranges.
	startBlock uint64

	addresses map[ContractKey]common.Address
	abis      map[ContractKey]abi.ABI
}

func NewContractEventSource(client *ethclient.Client, addresses map[ContractKey]string, startBlock uint64, l *zap.Logger) (*ContractEventSource, error) {
	es := &ContractEventSource{
		client:     client,
		logger:     l,
		startBlock: startBlock,
		addresses:  make(map[ContractKey]common.Address, len(addresses)),
		abis:       make(map[ContractKey]abi.ABI),
	}

	eventAbis := map[ContractKey]string{
		ContractKey_StakingRewards:          stakingRewardsEventsAbi,
		ContractKey_MerkleDistributor:       merkleDistributorEventsAbi,
		ContractKey_MerkleDirectDistributor: merkleDistributorEventsAbi,
		ContractKey_BackerMerkleDistributor: merkleDistributorEventsAbi,
	}
	for key, addr := range addresses {
		abiJson, ok := eventAbis[key]
		if !ok {
			return nil, errors.Errorf("no event abi for contract key '%s'", key)
		}
		parsed, err := abi.JSON(strings.NewReader(abiJson))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse event abi for '%s'", key)
		}
		es.addresses[key] = common.HexToAddress(addr)
		es.abis[key] = parsed
	}
	return es, nil
}

var _ IEventSource = (*ContractEventSource)(nil)

func (es *ContractEventSource) QueryEvents(ctx context.Context, contractKey ContractKey, eventNames []string, filter map[string]interface{}, toBlock uint64) ([]*Event, error) {
	address, ok := es.addresses[contractKey]
	if !ok {
		return nil, errors.Errorf("unknown contract key '%s'", contractKey)
	}
	contractAbi := es.abis[contractKey]

	topic0 := make([]common.Hash, 0, len(eventNames))
	for _, name := range eventNames {
		event, ok := contractAbi.Events[name]
		if !ok {
			return nil, errors.Errorf("contract '%s' has no event '%s'", contractKey, name)
		}
		topic0 = append(topic0, event.ID)
	}

	logs, err := es.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(es.startBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{topic0},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to filter logs for '%s'", contractKey)
	}

	decoded := make([]*Event, 0, len(logs))
	for i := range logs {
		event, err := es.decodeLog(contractAbi, &logs[i])
		if err != nil {
			es.logger.Sugar().Warnw("Skipping undecodable log",
				zap.String("contractKey", string(contractKey)),
				zap.String("transactionHash", logs[i].TxHash.Hex()),
				zap.Uint("logIndex", logs[i].Index),
				zap.Error(err),
			)
			continue
		}
		if matchesFilter(event, filter) {
			decoded = append(decoded, event)
		}
	}
	return decoded, nil
}

func (es *ContractEventSource) decodeLog(contractAbi abi.ABI, log *coretypes.Log) (*Event, error) {
	if len(log.Topics) == 0 {
		return nil, errors.New("log has no topics")
	}
	event, err := contractAbi.EventByID(log.Topics[0])
	if err != nil {
		return nil, err
	}

	args := make(map[string]interface{})
	if len(log.Data) > 0 {
		if err := contractAbi.UnpackIntoMap(args, event.Name, log.Data); err != nil {
			return nil, errors.Wrapf(err, "failed to unpack '%s' data", event.Name)
		}
	}

	indexed := make(abi.Arguments, 0)
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(indexed) > 0 {
		if err := abi.ParseTopicsIntoMap(args, indexed, log.Topics[1:]); err != nil {
			return nil, errors.Wrapf(err, "failed to parse '%s' topics", event.Name)
		}
	}

	return &Event{
		TransactionHash:  log.TxHash.Hex(),
		TransactionIndex: uint64(log.TxIndex),
		BlockNumber:      log.BlockNumber,
		LogIndex:         uint64(log.Index),
		Address:          strings.ToLower(log.Address.Hex()),
		EventName:        event.Name,
		Args:             args,
	}, nil
}

// matchesFilter applies the optional arg equality filter. Address arguments
// compare case-insensitively.
func matchesFilter(event *Event, filter map[string]interface{}) bool {
	for name, want := range filter {
		got, ok := event.Args[name]
		if !ok {
			return false
		}
		ws, wok := want.(string)
		gs, gok := got.(common.Address)
		if wok && gok {
			if !strings.EqualFold(ws, gs.Hex()) {
				return false
			}
			continue
		}
		if wn, ok := want.(uint64); ok {
			gn, ok := event.ArgUint64(name)
			if !ok || gn != wn {
				return false
			}
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}
