package event

import "amm_sim/internal/domain"

// Type identifies a command kind.
type Type string

const (
	TypeSwapRequest   Type = "SWAP_REQUEST"
	TypeBalanceUpdate Type = "BALANCE_UPDATE"
)

// Event is a sequenced command consumed by the engine's single writer.
type Event interface {
	GetSeq() uint64
	GetType() Type
}

// BaseEvent carries the sequence number and submission time (unix micros).
type BaseEvent struct {
	Seq uint64 `json:"seq"`
	Ts  int64  `json:"ts"`
}

func (b BaseEvent) GetSeq() uint64 { return b.Seq }

// SwapResult is the reply to a SwapRequestEvent.
type SwapResult struct {
	Tx  domain.TradingTransaction
	Err error
}

// SwapRequestEvent asks the engine to execute a swap for a wallet.
// Reply may be nil for fire-and-forget submissions.
type SwapRequestEvent struct {
	BaseEvent
	Wallet    string            `json:"wallet"`
	Amount    float64           `json:"amount"`
	Direction domain.Direction  `json:"direction"`
	Reply     chan<- SwapResult `json:"-"`
}

func (e *SwapRequestEvent) GetType() Type { return TypeSwapRequest }

// BalanceUpdateEvent overwrites one ledger cell.
type BalanceUpdateEvent struct {
	BaseEvent
	Token   string       `json:"token"`
	Wallet  string       `json:"wallet"`
	Balance float64      `json:"balance"`
	Reply   chan<- error `json:"-"`
}

func (e *BalanceUpdateEvent) GetType() Type { return TypeBalanceUpdate }
