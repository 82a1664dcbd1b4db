package events

// Staking event names. The composite events are convenience entry points on
// the staking contract that emit a primitive Staked/Unstaked event in the same
// transaction; keeping both would double-count the action.
const (
	EventName_Staked                      = "Staked"
	EventName_Unstaked                    = "Unstaked"
	EventName_DepositedAndStaked          = "DepositedAndStaked"
	EventName_UnstakedAndWithdrew         = "UnstakedAndWithdrew"
	EventName_UnstakedAndWithdrewMultiple = "UnstakedAndWithdrewMultiple"
	EventName_RewardPaid                  = "RewardPaid"
	EventName_GrantAccepted               = "GrantAccepted"
)

// compositeImplies maps each composite event to the primitive event it emits
// alongside itself.
var compositeImplies = map[string]string{
	EventName_DepositedAndStaked:          EventName_Staked,
	EventName_UnstakedAndWithdrew:         EventName_Unstaked,
	EventName_UnstakedAndWithdrewMultiple: EventName_Unstaked,
}

type transactionKey struct {
	blockNumber      uint64
	transactionIndex uint64
}

// DeduplicateEvents drops primitive events whose (blockNumber,
// transactionIndex) also carries a composite event implying them. Composite
// events and everything else pass through untouched. The input slice is never
// mutated and running the filter on its own output is a no-op.
//
// Known limitation: this assumes at most one composite action of a given kind
// per transaction. A batched or multi-send transaction bundling, say, two
// DepositedAndStaked calls would have both of its Staked events suppressed
// even though only a 1:1 pairing is justified. Detecting that is out of scope
// here; see DESIGN.md.
func DeduplicateEvents(evts []*Event) []*Event {
	implied := make(map[transactionKey]map[string]bool)
	for _, e := range evts {
		primitive, ok := compositeImplies[e.EventName]
		if !ok {
			continue
		}
		key := transactionKey{blockNumber: e.BlockNumber, transactionIndex: e.TransactionIndex}
		if implied[key] == nil {
			implied[key] = make(map[string]bool)
		}
		implied[key][primitive] = true
	}

	out := make([]*Event, 0, len(evts))
	for _, e := range evts {
		key := transactionKey{blockNumber: e.BlockNumber, transactionIndex: e.TransactionIndex}
		if names, ok := implied[key]; ok && names[e.EventName] {
			continue
		}
		out = append(out, e)
	}
	return out
}
