// Package amm holds the reserve state of a single constant-product pair.
package amm

import (
	"math"

	"amm_sim/internal/domain"

	"github.com/google/uuid"
)

// PairState holds the two reserves of a trading pair.
//
// Swaps credit the incoming reserve first and derive the outgoing amount from
// the already-updated pool, so k drifts slightly on every trade. k is always
// recomputed from the current reserves after a mutation.
//
// PairState has value semantics: Clone gives an independent copy that can be
// traded on and then committed in place of the original.
type PairState struct {
	pair        domain.TradingPair
	reserve0    float64
	reserve1    float64
	k           float64
	initialized bool
}

// NewPairState creates a pair with zero reserves. Initialize must be called
// before trading.
func NewPairState(pair domain.TradingPair) *PairState {
	return &PairState{pair: pair}
}

// Pair returns the pair descriptor.
func (p *PairState) Pair() domain.TradingPair {
	return p.pair
}

// Initialize sets both reserves and recomputes k.
func (p *PairState) Initialize(reserve0, reserve1 float64) {
	p.reserve0 = reserve0
	p.reserve1 = reserve1
	p.k = reserve0 * reserve1
	p.initialized = true
}

// UpdateReserves reseeds the pool, e.g. when a scenario is loaded.
func (p *PairState) UpdateReserves(reserve0, reserve1 float64) {
	p.Initialize(reserve0, reserve1)
}

// Initialized reports whether reserves have been set.
func (p *PairState) Initialized() bool {
	return p.initialized
}

// Reserves returns (reserve0, reserve1).
func (p *PairState) Reserves() (float64, float64) {
	return p.reserve0, p.reserve1
}

// K returns the product of the reserves as of the last mutation.
func (p *PairState) K() float64 {
	return p.k
}

// Liquidity returns sqrt(k).
func (p *PairState) Liquidity() float64 {
	return math.Sqrt(p.k)
}

// SpotPrice returns reserve1 / reserve0.
// A zero base reserve yields ErrDivisionByZero rather than an infinity.
func (p *PairState) SpotPrice() (float64, error) {
	if !p.initialized {
		return 0, domain.ErrUninitializedState
	}
	if p.reserve0 == 0 {
		return 0, domain.ErrDivisionByZero
	}
	return p.reserve1 / p.reserve0, nil
}

// SwapBuy pays amount1In of the quote token into the pool and takes base out.
func (p *PairState) SwapBuy(amount1In float64) (domain.TradingTransaction, error) {
	if !p.initialized {
		return domain.TradingTransaction{}, domain.ErrUninitializedState
	}

	p.reserve1 += amount1In
	amount0Out := amount1In * p.reserve0 / p.reserve1
	p.reserve0 -= amount0Out
	p.k = p.reserve0 * p.reserve1

	return domain.TradingTransaction{
		ID:                 uuid.NewString(),
		Direction:          domain.Buy,
		TokenA:             p.pair.BaseToken,
		TokenB:             p.pair.QuoteToken,
		AmountChangeTokenA: amount0Out,
		AmountChangeTokenB: amount1In,
	}, nil
}

// SwapSell pays amount0In of the base token into the pool and takes quote out.
func (p *PairState) SwapSell(amount0In float64) (domain.TradingTransaction, error) {
	if !p.initialized {
		return domain.TradingTransaction{}, domain.ErrUninitializedState
	}

	p.reserve0 += amount0In
	amount1Out := amount0In * p.reserve1 / p.reserve0
	p.reserve1 -= amount1Out
	p.k = p.reserve0 * p.reserve1

	return domain.TradingTransaction{
		ID:                 uuid.NewString(),
		Direction:          domain.Sell,
		TokenA:             p.pair.BaseToken,
		TokenB:             p.pair.QuoteToken,
		AmountChangeTokenA: amount0In,
		AmountChangeTokenB: amount1Out,
	}, nil
}

// Swap dispatches to SwapBuy or SwapSell.
func (p *PairState) Swap(amount float64, direction domain.Direction) (domain.TradingTransaction, error) {
	switch direction {
	case domain.Buy:
		return p.SwapBuy(amount)
	case domain.Sell:
		return p.SwapSell(amount)
	default:
		return domain.TradingTransaction{}, domain.InvalidArgument("unknown direction %q", direction)
	}
}

// Mint adds liquidity to both sides.
func (p *PairState) Mint(amount0, amount1 float64) error {
	if !p.initialized {
		return domain.ErrUninitializedState
	}
	p.reserve0 += amount0
	p.reserve1 += amount1
	p.k = p.reserve0 * p.reserve1
	return nil
}

// Burn removes liquidity from both sides.
func (p *PairState) Burn(amount0, amount1 float64) error {
	if !p.initialized {
		return domain.ErrUninitializedState
	}
	p.reserve0 -= amount0
	p.reserve1 -= amount1
	p.k = p.reserve0 * p.reserve1
	return nil
}

// Clone returns an independent copy.
func (p *PairState) Clone() *PairState {
	c := *p
	return &c
}
