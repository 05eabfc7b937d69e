// Package scenario generates randomized trading scenarios and replays them
// against an engine over simulated time.
package scenario

import (
	"sort"

	"amm_sim/internal/domain"
)

// Reserves seeds the pair when a scenario is loaded.
type Reserves struct {
	Reserve0 float64 `json:"reserve0"`
	Reserve1 float64 `json:"reserve1"`
}

// Step is one synthetic trade. Time is the offset from scenario start in
// milliseconds; AmountPercentage is the share of the wallet's source-token
// balance to trade, in [0, 1).
type Step struct {
	Time             int64            `json:"t"`
	Direction        domain.Direction `json:"direction"`
	AmountPercentage float64          `json:"amount_percentage"`
	Wallet           string           `json:"wallet"`
}

// Scenario is a self-consistent initial state plus time-keyed steps.
// Steps are grouped under their time rounded down to the generator's
// granularity; order within a group is generation order.
type Scenario struct {
	InitialBalances domain.Balances  `json:"initial_balances"`
	InitialReserves Reserves         `json:"initial_reserves"`
	Steps           map[int64][]Step `json:"steps"`
}

// Keys returns the step keys in ascending order.
func (s *Scenario) Keys() []int64 {
	keys := make([]int64, 0, len(s.Steps))
	for k := range s.Steps {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// StepCount returns the total number of steps across all keys.
func (s *Scenario) StepCount() int {
	n := 0
	for _, steps := range s.Steps {
		n += len(steps)
	}
	return n
}
