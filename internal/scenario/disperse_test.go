package scenario

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"amm_sim/internal/domain"

	"pgregory.net/rapid"
)

func TestDisperse_EmptyTargets(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	if _, err := Disperse(r, 100, nil, 10); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestDisperse_DuplicateTargets(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	if _, err := Disperse(r, 100, []string{"a", "a"}, 10); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
}

func TestDisperse_ZeroTotal(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	t.Run("with noise", func(t *testing.T) {
		shares, err := Disperse(r, 0, []string{"a", "b", "c"}, 10)
		if err != nil {
			t.Fatalf("Disperse failed: %v", err)
		}
		for id, v := range shares {
			if v != 0 {
				t.Errorf("share %s = %v, want 0", id, v)
			}
		}
	})

	t.Run("without noise", func(t *testing.T) {
		shares, err := Disperse(r, 0, []string{"a", "b"}, 0)
		if err != nil {
			t.Fatalf("Disperse failed: %v", err)
		}
		if shares["a"] != 0 || shares["b"] != 0 {
			t.Errorf("Expected zero shares, got %v", shares)
		}
	})
}

func TestDisperse_Deterministic(t *testing.T) {
	targets := []string{"a", "b", "c", "d"}
	first, _ := Disperse(rand.New(rand.NewPCG(7, 7)), 1000, targets, 10)
	second, _ := Disperse(rand.New(rand.NewPCG(7, 7)), 1000, targets, 10)

	for _, id := range targets {
		if first[id] != second[id] {
			t.Errorf("share %s differs across identical seeds: %v vs %v", id, first[id], second[id])
		}
	}
}

func TestProperty_DisperseSumsToTotal(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 200).Draw(t, "n")
		total := rapid.Float64Range(0, 1e9).Draw(t, "total")
		sd := rapid.Float64Range(0, 1e3).Draw(t, "sd")
		seed := rapid.Uint64().Draw(t, "seed")

		targets := make([]string, n)
		for i := range targets {
			targets[i] = fmt.Sprintf("0xscenariowallet%d", i)
		}

		shares, err := Disperse(rand.New(rand.NewPCG(seed, seed)), total, targets, sd)
		if err != nil {
			t.Fatalf("Disperse failed: %v", err)
		}
		if len(shares) != n {
			t.Fatalf("expected %d shares, got %d", n, len(shares))
		}

		var sum float64
		for id, v := range shares {
			if v < 0 {
				t.Fatalf("share %s is negative: %v", id, v)
			}
			sum += v
		}
		if math.Abs(sum-total) > 1e-6*math.Max(1, total) {
			t.Fatalf("shares sum to %v, want %v", sum, total)
		}
	})
}
