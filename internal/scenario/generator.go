package scenario

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"amm_sim/internal/domain"
)

const (
	// DefaultRoundTo is the step-time granularity.
	DefaultRoundTo = 1000 * time.Millisecond

	// DefaultStandardDeviation is the noise used when dispersing wallet balances.
	DefaultStandardDeviation = 10.0

	walletPrefix = "0xscenariowallet"
)

// Params configures scenario generation.
type Params struct {
	InitialReserves           Reserves
	AmountBaseTokenInWallets  float64
	AmountQuoteTokenInWallets float64
	Wallets                   int
	Steps                     int
	Duration                  time.Duration
	RoundTo                   time.Duration
	StandardDeviation         float64
	TokenA                    string // base token
	TokenB                    string // quote token
}

// DefaultParams returns the parameters of the stock demo scenario.
func DefaultParams() Params {
	return Params{
		InitialReserves:           Reserves{Reserve0: 1000, Reserve1: 1000},
		AmountBaseTokenInWallets:  0,
		AmountQuoteTokenInWallets: 100000,
		Wallets:                   100,
		Steps:                     100,
		Duration:                  100 * time.Second,
		RoundTo:                   DefaultRoundTo,
		StandardDeviation:         DefaultStandardDeviation,
		TokenA:                    domain.DefaultPair.BaseToken,
		TokenB:                    domain.DefaultPair.QuoteToken,
	}
}

// Validate checks the parameters are usable.
func (p Params) Validate() error {
	if p.Wallets <= 0 {
		return domain.InvalidArgument("wallet count must be positive, got %d", p.Wallets)
	}
	if p.Steps < 0 {
		return domain.InvalidArgument("step count must not be negative, got %d", p.Steps)
	}
	if p.Duration.Milliseconds() <= 0 {
		return domain.InvalidArgument("duration must be at least 1ms, got %s", p.Duration)
	}
	if p.RoundTo.Milliseconds() <= 0 {
		return domain.InvalidArgument("round-to must be at least 1ms, got %s", p.RoundTo)
	}
	if p.TokenA == "" || p.TokenB == "" || p.TokenA == p.TokenB {
		return domain.InvalidArgument("tokens must be distinct and non-empty: %q/%q", p.TokenA, p.TokenB)
	}
	return nil
}

// WalletID returns the synthetic identifier of the i-th scenario wallet.
func WalletID(i int) string {
	return fmt.Sprintf("%s%d", walletPrefix, i)
}

// Generator builds scenarios from a random source. Generation has no side
// effects beyond consuming the source.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator reading from rng.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// NewSeededGenerator creates a generator with a deterministic PCG source.
func NewSeededGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Generate produces a scenario for p.
func (g *Generator) Generate(p Params) (*Scenario, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	wallets := make([]string, p.Wallets)
	for i := range wallets {
		wallets[i] = WalletID(i)
	}

	baseShares, err := Disperse(g.rng, p.AmountBaseTokenInWallets, wallets, p.StandardDeviation)
	if err != nil {
		return nil, fmt.Errorf("disperse %s: %w", p.TokenA, err)
	}
	quoteShares, err := Disperse(g.rng, p.AmountQuoteTokenInWallets, wallets, p.StandardDeviation)
	if err != nil {
		return nil, fmt.Errorf("disperse %s: %w", p.TokenB, err)
	}

	balances := domain.Balances{
		p.TokenA: baseShares,
		p.TokenB: quoteShares,
	}

	durationMs := float64(p.Duration.Milliseconds())
	roundTo := p.RoundTo.Milliseconds()

	steps := make(map[int64][]Step)
	for i := 0; i < p.Steps; i++ {
		t := int64(math.Floor(g.rng.Float64() * durationMs))
		key := t / roundTo * roundTo

		direction := domain.Sell
		if g.rng.Float64() > 0.5 {
			direction = domain.Buy
		}
		amountPercentage := math.Floor(g.rng.Float64()*100) / 100
		wallet := wallets[g.rng.IntN(len(wallets))]

		steps[key] = append(steps[key], Step{
			Time:             t,
			Direction:        direction,
			AmountPercentage: amountPercentage,
			Wallet:           wallet,
		})
	}

	return &Scenario{
		InitialBalances: balances,
		InitialReserves: p.InitialReserves,
		Steps:           steps,
	}, nil
}
