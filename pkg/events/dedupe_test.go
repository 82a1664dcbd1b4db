package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newEvent(name string, block, txIndex, logIndex uint64) *Event {
	return &Event{
		TransactionHash:  "0xabc",
		TransactionIndex: txIndex,
		BlockNumber:      block,
		LogIndex:         logIndex,
		EventName:        name,
	}
}

func eventNames(evts []*Event) []string {
	names := make([]string, 0, len(evts))
	for _, e := range evts {
		names = append(names, e.EventName)
	}
	return names
}

func Test_DeduplicateEvents(t *testing.T) {
	t.Run("Removes the Staked implied by a DepositedAndStaked in the same transaction", func(t *testing.T) {
		in := []*Event{
			newEvent(EventName_DepositedAndStaked, 100, 3, 0),
			newEvent(EventName_Staked, 100, 3, 1),
		}
		out := DeduplicateEvents(in)
		assert.Equal(t, []string{EventName_DepositedAndStaked}, eventNames(out))
	})

	t.Run("Removes the Unstaked implied by either unstake-and-withdraw variant", func(t *testing.T) {
		in := []*Event{
			newEvent(EventName_UnstakedAndWithdrew, 50, 0, 0),
			newEvent(EventName_Unstaked, 50, 0, 1),
			newEvent(EventName_UnstakedAndWithdrewMultiple, 51, 2, 0),
			newEvent(EventName_Unstaked, 51, 2, 1),
		}
		out := DeduplicateEvents(in)
		assert.Equal(t, []string{
			EventName_UnstakedAndWithdrew,
			EventName_UnstakedAndWithdrewMultiple,
		}, eventNames(out))
	})

	t.Run("Keeps a plain Staked in a different transaction of the same block", func(t *testing.T) {
		in := []*Event{
			newEvent(EventName_DepositedAndStaked, 100, 3, 0),
			newEvent(EventName_Staked, 100, 4, 0),
		}
		out := DeduplicateEvents(in)
		assert.Equal(t, []string{EventName_DepositedAndStaked, EventName_Staked}, eventNames(out))
	})

	t.Run("Reward payments and unrelated events pass through", func(t *testing.T) {
		in := []*Event{
			newEvent(EventName_DepositedAndStaked, 7, 1, 0),
			newEvent(EventName_Staked, 7, 1, 1),
			newEvent(EventName_RewardPaid, 7, 1, 2),
			newEvent(EventName_GrantAccepted, 8, 0, 0),
		}
		out := DeduplicateEvents(in)
		assert.Equal(t, []string{
			EventName_DepositedAndStaked,
			EventName_RewardPaid,
			EventName_GrantAccepted,
		}, eventNames(out))
	})

	t.Run("Filtering is idempotent", func(t *testing.T) {
		in := []*Event{
			newEvent(EventName_DepositedAndStaked, 100, 3, 0),
			newEvent(EventName_Staked, 100, 3, 1),
			newEvent(EventName_UnstakedAndWithdrew, 101, 0, 0),
			newEvent(EventName_Unstaked, 101, 0, 1),
			newEvent(EventName_RewardPaid, 102, 0, 0),
		}
		once := DeduplicateEvents(in)
		twice := DeduplicateEvents(once)
		assert.Equal(t, eventNames(once), eventNames(twice))
	})

	t.Run("Does not mutate its input", func(t *testing.T) {
		in := []*Event{
			newEvent(EventName_DepositedAndStaked, 100, 3, 0),
			newEvent(EventName_Staked, 100, 3, 1),
		}
		_ = DeduplicateEvents(in)
		assert.Len(t, in, 2)
		assert.Equal(t, EventName_Staked, in[1].EventName)
	})
}
