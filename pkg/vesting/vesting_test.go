package vesting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_TotalVestedAt(t *testing.T) {
	amount := decimal.NewFromInt(1000)

	t.Run("Nothing is vested before the cliff", func(t *testing.T) {
		s := Schedule{StartTime: 1000, EndTime: 1000 + 31536000, CliffLength: 15768000}
		assert.True(t, TotalVestedAt(amount, s, 1000).IsZero())
		assert.True(t, TotalVestedAt(amount, s, 1000+15768000-1).IsZero())
	})

	t.Run("Everything is vested at the end time", func(t *testing.T) {
		s := Schedule{StartTime: 1000, EndTime: 1000 + 31536000}
		assert.Equal(t, "1000", TotalVestedAt(amount, s, s.EndTime).String())
		assert.Equal(t, "1000", TotalVestedAt(amount, s, s.EndTime+100).String())
	})

	t.Run("Half is vested at the midpoint of a one year schedule", func(t *testing.T) {
		s := Schedule{StartTime: 1000, EndTime: 1000 + 31536000}
		mid := s.StartTime + 31536000/2
		assert.Equal(t, "500", TotalVestedAt(amount, s, mid).String())
	})

	t.Run("Vesting only ticks on whole interval multiples", func(t *testing.T) {
		// 10 intervals of 100s over 1000s
		s := Schedule{StartTime: 0, EndTime: 1000, VestingInterval: 100}
		assert.Equal(t, "0", TotalVestedAt(amount, s, 99).String())
		assert.Equal(t, "100", TotalVestedAt(amount, s, 100).String())
		assert.Equal(t, "100", TotalVestedAt(amount, s, 199).String())
		assert.Equal(t, "900", TotalVestedAt(amount, s, 999).String())
	})

	t.Run("Zero interval behaves as one second granularity", func(t *testing.T) {
		s := Schedule{StartTime: 0, EndTime: 1000, VestingInterval: 0}
		one := Schedule{StartTime: 0, EndTime: 1000, VestingInterval: 1}
		for _, now := range []uint64{0, 1, 333, 500, 999, 1000} {
			assert.Equal(t, TotalVestedAt(amount, one, now).String(), TotalVestedAt(amount, s, now).String())
		}
	})

	t.Run("Division truncates toward zero", func(t *testing.T) {
		// 1000 * 1 / 3 = 333.33... -> 333
		s := Schedule{StartTime: 0, EndTime: 3}
		assert.Equal(t, "333", TotalVestedAt(amount, s, 1).String())
		assert.Equal(t, "666", TotalVestedAt(amount, s, 2).String())
	})

	t.Run("Vested amount is monotonically non-decreasing in time", func(t *testing.T) {
		s := Schedule{StartTime: 500, EndTime: 500 + 86400, CliffLength: 3600, VestingInterval: 600}
		prev := decimal.Zero
		for now := uint64(0); now <= s.EndTime+1000; now += 97 {
			v := TotalVestedAt(amount, s, now)
			assert.True(t, v.GreaterThanOrEqual(prev), "vested decreased at t=%d", now)
			assert.True(t, v.LessThanOrEqual(amount))
			prev = v
		}
	})

	t.Run("Degenerate schedule with end before start is fully vested", func(t *testing.T) {
		s := Schedule{StartTime: 1000, EndTime: 1000}
		assert.Equal(t, "1000", TotalVestedAt(amount, s, 1000).String())
	})
}

func Test_OptimisticSchedule(t *testing.T) {
	s := OptimisticSchedule(5000, 1000, 100, 10)
	assert.Equal(t, uint64(5000), s.StartTime)
	assert.Equal(t, uint64(6000), s.EndTime)
	assert.Equal(t, uint64(100), s.CliffLength)
	assert.Equal(t, uint64(10), s.VestingInterval)
}
