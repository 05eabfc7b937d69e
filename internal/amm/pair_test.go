package amm

import (
	"errors"
	"math"
	"testing"

	"amm_sim/internal/domain"

	"pgregory.net/rapid"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func TestPairState_Uninitialized(t *testing.T) {
	p := NewPairState(domain.DefaultPair)

	if _, err := p.SwapBuy(1); !errors.Is(err, domain.ErrUninitializedState) {
		t.Errorf("SwapBuy: expected ErrUninitializedState, got %v", err)
	}
	if _, err := p.SwapSell(1); !errors.Is(err, domain.ErrUninitializedState) {
		t.Errorf("SwapSell: expected ErrUninitializedState, got %v", err)
	}
	if err := p.Mint(1, 1); !errors.Is(err, domain.ErrUninitializedState) {
		t.Errorf("Mint: expected ErrUninitializedState, got %v", err)
	}
	if _, err := p.SpotPrice(); !errors.Is(err, domain.ErrUninitializedState) {
		t.Errorf("SpotPrice: expected ErrUninitializedState, got %v", err)
	}
}

func TestPairState_SwapBuy(t *testing.T) {
	p := NewPairState(domain.DefaultPair)
	p.Initialize(1000, 1000)

	tx, err := p.SwapBuy(100)
	if err != nil {
		t.Fatalf("SwapBuy failed: %v", err)
	}

	r0, r1 := p.Reserves()
	if r1 != 1100 {
		t.Errorf("Expected reserve1 1100, got %v", r1)
	}

	wantOut := 100.0 * 1000.0 / 1100.0
	if tx.AmountChangeTokenA != wantOut {
		t.Errorf("Expected amount0Out %v, got %v", wantOut, tx.AmountChangeTokenA)
	}
	if !almostEqual(r0, 909.0909090909, 1e-9) {
		t.Errorf("Expected reserve0 ~909.091, got %v", r0)
	}
	if p.K() != r0*r1 {
		t.Errorf("k must be recomputed: %v != %v", p.K(), r0*r1)
	}
	if !almostEqual(p.K(), 1_000_000, 1e-9) {
		t.Errorf("Expected k ~1e6, got %v", p.K())
	}

	if tx.Direction != domain.Buy || tx.TokenA != "MOCKPACO" || tx.TokenB != "MOCKUSDT" || tx.AmountChangeTokenB != 100 {
		t.Errorf("Unexpected transaction %+v", tx)
	}
	if tx.ID == "" {
		t.Error("Transaction should carry an ID")
	}
}

func TestPairState_SwapSell(t *testing.T) {
	p := NewPairState(domain.DefaultPair)
	p.Initialize(1000, 2000)

	tx, err := p.Swap(100, domain.Sell)
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}

	r0, r1 := p.Reserves()
	wantOut := 100.0 * 2000.0 / 1100.0
	if r0 != 1100 {
		t.Errorf("Expected reserve0 1100, got %v", r0)
	}
	if tx.AmountChangeTokenB != wantOut {
		t.Errorf("Expected amount1Out %v, got %v", wantOut, tx.AmountChangeTokenB)
	}
	if r1 != 2000-wantOut {
		t.Errorf("Expected reserve1 %v, got %v", 2000-wantOut, r1)
	}
	if tx.Direction != domain.Sell || tx.AmountChangeTokenA != 100 {
		t.Errorf("Unexpected transaction %+v", tx)
	}
}

func TestPairState_UnknownDirection(t *testing.T) {
	p := NewPairState(domain.DefaultPair)
	p.Initialize(1000, 1000)

	if _, err := p.Swap(1, domain.Direction("HOLD")); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestPairState_SpotPrice(t *testing.T) {
	t.Run("zero base reserve", func(t *testing.T) {
		p := NewPairState(domain.DefaultPair)
		p.Initialize(0, 1000)
		if _, err := p.SpotPrice(); !errors.Is(err, domain.ErrDivisionByZero) {
			t.Errorf("Expected ErrDivisionByZero, got %v", err)
		}
	})

	t.Run("liquidity is sqrt k", func(t *testing.T) {
		p := NewPairState(domain.DefaultPair)
		p.Initialize(400, 900)
		if p.Liquidity() != 600 {
			t.Errorf("Expected 600, got %v", p.Liquidity())
		}
	})
}

func TestPairState_CloneIsIndependent(t *testing.T) {
	p := NewPairState(domain.DefaultPair)
	p.Initialize(1000, 1000)

	c := p.Clone()
	if _, err := c.SwapBuy(100); err != nil {
		t.Fatalf("SwapBuy on clone failed: %v", err)
	}

	r0, r1 := p.Reserves()
	if r0 != 1000 || r1 != 1000 {
		t.Errorf("Original mutated through clone: %v/%v", r0, r1)
	}
	if !c.Initialized() || c.Pair() != p.Pair() {
		t.Error("Clone should keep pair and initialization")
	}
}

func TestProperty_SpotPriceIsReserveRatio(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r0 := rapid.Float64Range(1e-6, 1e12).Draw(t, "reserve0")
		r1 := rapid.Float64Range(1e-6, 1e12).Draw(t, "reserve1")

		p := NewPairState(domain.DefaultPair)
		p.Initialize(r0, r1)

		price, err := p.SpotPrice()
		if err != nil {
			t.Fatalf("SpotPrice failed: %v", err)
		}
		if price != r1/r0 {
			t.Fatalf("expected %v, got %v", r1/r0, price)
		}
	})
}

func TestProperty_MintBurnRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r0 := rapid.Float64Range(1, 1e9).Draw(t, "reserve0")
		r1 := rapid.Float64Range(1, 1e9).Draw(t, "reserve1")
		a0 := rapid.Float64Range(0, 1e9).Draw(t, "amount0")
		a1 := rapid.Float64Range(0, 1e9).Draw(t, "amount1")

		p := NewPairState(domain.DefaultPair)
		p.Initialize(r0, r1)
		if err := p.Mint(a0, a1); err != nil {
			t.Fatalf("Mint failed: %v", err)
		}
		if err := p.Burn(a0, a1); err != nil {
			t.Fatalf("Burn failed: %v", err)
		}

		got0, got1 := p.Reserves()
		if !almostEqual(got0, r0, 1e-6) || !almostEqual(got1, r1, 1e-6) {
			t.Fatalf("round trip drifted: (%v,%v) -> (%v,%v)", r0, r1, got0, got1)
		}
	})
}

func TestProperty_KRecomputedAfterSwap(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r0 := rapid.Float64Range(1, 1e9).Draw(t, "reserve0")
		r1 := rapid.Float64Range(1, 1e9).Draw(t, "reserve1")
		amount := rapid.Float64Range(0, 1e6).Draw(t, "amount")
		buy := rapid.Bool().Draw(t, "buy")

		p := NewPairState(domain.DefaultPair)
		p.Initialize(r0, r1)

		direction := domain.Sell
		if buy {
			direction = domain.Buy
		}
		if _, err := p.Swap(amount, direction); err != nil {
			t.Fatalf("Swap failed: %v", err)
		}

		a0, a1 := p.Reserves()
		if p.K() != a0*a1 {
			t.Fatalf("k %v != reserve0*reserve1 %v", p.K(), a0*a1)
		}
		if a0 < 0 || a1 < 0 {
			t.Fatalf("reserves went negative: %v/%v", a0, a1)
		}
	})
}
