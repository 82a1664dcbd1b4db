// Package vesting reproduces, off-chain, the vesting arithmetic of the
// community rewards and distributor contracts. The math here must match the
// contract bit for bit: amounts are uint256 base units and every division
// truncates toward zero, so all arithmetic stays in big.Int space.
package vesting

import (
	"github.com/shopspring/decimal"

	"github.com/warbler-labs/rewards-engine/pkg/numbers"
)

// Schedule describes a linear vesting schedule with an optional cliff and a
// discretized vesting interval. All fields are unix timestamps or durations in
// seconds.
type Schedule struct {
	StartTime       uint64
	EndTime         uint64
	CliffLength     uint64
	VestingInterval uint64
}

// OptimisticSchedule builds the schedule used to preview vesting for a grant
// that has not been accepted yet, assuming it had been accepted at launchTime.
// The launch time is a product policy input, not derivable from grant data.
func OptimisticSchedule(launchTime, vestingLength, cliffLength, vestingInterval uint64) Schedule {
	return Schedule{
		StartTime:       launchTime,
		EndTime:         launchTime + vestingLength,
		CliffLength:     cliffLength,
		VestingInterval: vestingInterval,
	}
}

// TotalVestedAt returns the amount vested at time now. Before the cliff
// nothing is vested; at or past EndTime everything is. In between, vesting is
// linear but quantized: only whole multiples of VestingInterval count. A zero
// VestingInterval means no discretization (one-second granularity).
func TotalVestedAt(amount decimal.Decimal, s Schedule, now uint64) decimal.Decimal {
	if now < s.StartTime+s.CliffLength {
		return decimal.Zero
	}
	if now >= s.EndTime || s.EndTime <= s.StartTime {
		return amount
	}

	interval := s.VestingInterval
	if interval == 0 {
		interval = 1
	}

	elapsedIntervals := (now - s.StartTime) / interval
	totalIntervals := (s.EndTime - s.StartTime) / interval
	if totalIntervals == 0 {
		return amount
	}
	if elapsedIntervals >= totalIntervals {
		return amount
	}

	return numbers.MulDivFloor(amount, elapsedIntervals, totalIntervals)
}
