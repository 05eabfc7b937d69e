package event

import (
	"sync"
)

// Swap requests are the hotpath command during scenario replay.
//
// Usage:
//
//	ev := AcquireSwapRequestEvent()
//	ev.Wallet = "0xscenariowallet0"
//	// ... submit; the sequencer releases it after replying ...
var swapRequestPool = sync.Pool{
	New: func() interface{} {
		return &SwapRequestEvent{}
	},
}

// AcquireSwapRequestEvent gets a SwapRequestEvent from the pool.
// The returned event has zero values and must be initialized.
func AcquireSwapRequestEvent() *SwapRequestEvent {
	return swapRequestPool.Get().(*SwapRequestEvent)
}

// ReleaseSwapRequestEvent returns a SwapRequestEvent to the pool.
func ReleaseSwapRequestEvent(ev *SwapRequestEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Wallet = ""
	ev.Amount = 0
	ev.Direction = ""
	ev.Reply = nil

	swapRequestPool.Put(ev)
}

var balanceUpdatePool = sync.Pool{
	New: func() interface{} {
		return &BalanceUpdateEvent{}
	},
}

// AcquireBalanceUpdateEvent gets a BalanceUpdateEvent from the pool.
func AcquireBalanceUpdateEvent() *BalanceUpdateEvent {
	return balanceUpdatePool.Get().(*BalanceUpdateEvent)
}

// ReleaseBalanceUpdateEvent returns a BalanceUpdateEvent to the pool.
func ReleaseBalanceUpdateEvent(ev *BalanceUpdateEvent) {
	if ev == nil {
		return
	}
	ev.Seq = 0
	ev.Ts = 0
	ev.Token = ""
	ev.Wallet = ""
	ev.Balance = 0
	ev.Reply = nil

	balanceUpdatePool.Put(ev)
}

// Warmup pre-allocates event objects to reduce GC pressure at startup.
func Warmup() {
	const batchSize = 1000

	swaps := make([]*SwapRequestEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		swaps = append(swaps, AcquireSwapRequestEvent())
	}
	for _, ev := range swaps {
		ReleaseSwapRequestEvent(ev)
	}

	balances := make([]*BalanceUpdateEvent, 0, batchSize)
	for i := 0; i < batchSize; i++ {
		balances = append(balances, AcquireBalanceUpdateEvent())
	}
	for _, ev := range balances {
		ReleaseBalanceUpdateEvent(ev)
	}
}
