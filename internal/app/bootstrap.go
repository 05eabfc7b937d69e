package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"amm_sim/internal/domain"
	"amm_sim/internal/engine"
	"amm_sim/internal/event"
	"amm_sim/internal/infra"
	"amm_sim/internal/infra/storage"
	"amm_sim/internal/infra/ws"
	"amm_sim/internal/scenario"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config      *infra.Config
	Storage     *storage.Storage
	Metrics     *infra.Metrics
	Engine      *engine.Engine
	Sequencer   *engine.Sequencer
	Broadcaster *ws.Broadcaster

	// Clock drives the engine in simulated time; nil when running realtime.
	Clock *scenario.SimClock
	RunID string

	unsubscribe func()
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the config file and wires every component.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping AMM simulator...")

	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}

	slog.SetDefault(infra.NewLogger(cfg))
	return b.InitializeWith(cfg)
}

// InitializeWith wires components from an already loaded config.
func (b *Bootstrap) InitializeWith(cfg *infra.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	b.Config = cfg
	b.RunID = uuid.NewString()
	b.Metrics = infra.GlobalMetrics

	opts := []engine.Option{engine.WithMetrics(b.Metrics)}

	if cfg.Storage.Enabled {
		store, err := storage.NewStorage(cfg.Storage.Path)
		if err != nil {
			return err
		}
		b.Storage = store
		opts = append(opts, engine.WithJournal(store, b.RunID))
		slog.Info("✅ Run journal initialized", slog.String("path", cfg.Storage.Path), slog.String("run_id", b.RunID))
	}

	if !cfg.Scenario.Realtime {
		b.Clock = scenario.NewSimClock(time.Now().Truncate(time.Second))
		opts = append(opts, engine.WithClock(b.Clock.Now), engine.WithSleeper(b.Clock))
	}

	eng, err := engine.NewEngine(cfg.TradingPair(), cfg.Engine.TimeframeSec, opts...)
	if err != nil {
		return err
	}
	if err := eng.Initialize(cfg.Engine.InitialReserve0.InexactFloat64(), cfg.Engine.InitialReserve1.InexactFloat64()); err != nil {
		return err
	}
	b.Engine = eng

	event.Warmup()
	b.Sequencer = engine.NewSequencer(cfg.Engine.InboxSize, eng)

	b.Broadcaster = ws.NewBroadcaster(b.Metrics)
	b.unsubscribe = eng.Subscribe(func(c domain.Candle) {
		b.Broadcaster.Publish(c)
	})

	slog.Info("✅ Engine ready",
		slog.String("base", cfg.Pair.BaseToken),
		slog.String("quote", cfg.Pair.QuoteToken),
		slog.Int("timeframe_sec", cfg.Engine.TimeframeSec),
		slog.Bool("realtime", cfg.Scenario.Realtime),
	)
	return nil
}

// GenerateScenario builds the configured scenario from its seed.
func (b *Bootstrap) GenerateScenario() (*scenario.Scenario, error) {
	return scenario.NewSeededGenerator(b.Config.Scenario.Seed).Generate(b.Config.ScenarioParams())
}

// RunScenario generates and replays the configured scenario, then stores
// the final ledger and logs a summary.
func (b *Bootstrap) RunScenario(ctx context.Context) error {
	sc, err := b.GenerateScenario()
	if err != nil {
		return fmt.Errorf("generate scenario: %w", err)
	}

	if err := b.Engine.LoadScenario(ctx, sc); err != nil {
		return err
	}

	if b.Storage != nil {
		if err := b.Storage.SaveLedger(b.RunID, b.Engine.Ledger()); err != nil {
			slog.Error("Failed to save final ledger", slog.Any("error", err))
		}
	}

	summary, err := b.Summary()
	if err != nil {
		slog.Warn("Failed to summarize run", slog.Any("error", err))
		return nil
	}
	slog.Info("✨ Scenario finished",
		slog.String("run_id", b.RunID),
		slog.String("spot_price", summary.SpotPrice.String()),
		slog.String("reserve0", summary.Reserve0.String()),
		slog.String("reserve1", summary.Reserve1.String()),
		slog.Int("wallets", summary.Wallets),
		slog.String("wallet_equity", summary.WalletEquity.String()),
		slog.Int("candles", summary.Candles),
	)
	return nil
}

// Summary is a decimal report of the engine state.
type Summary struct {
	SpotPrice    decimal.Decimal `json:"spot_price"`
	Reserve0     decimal.Decimal `json:"reserve0"`
	Reserve1     decimal.Decimal `json:"reserve1"`
	Wallets      int             `json:"wallets"`
	WalletEquity decimal.Decimal `json:"wallet_equity"`
	Candles      int             `json:"candles"`
}

// Summary values every wallet in quote terms at the current spot price.
func (b *Bootstrap) Summary() (Summary, error) {
	price, err := b.Engine.SpotPrice()
	if err != nil {
		return Summary{}, err
	}

	pair := b.Engine.Pair()
	ledger := domain.NewLedgerFrom(b.Engine.Ledger())
	wallets := ledger.Wallets()

	equity := decimal.Zero
	for _, w := range wallets {
		v, err := ledger.Valuation(w, pair, price)
		if err != nil {
			return Summary{}, err
		}
		equity = equity.Add(v)
	}

	r0, r1, _ := b.Engine.Reserves()
	return Summary{
		SpotPrice:    decimal.NewFromFloat(price).Round(8),
		Reserve0:     decimal.NewFromFloat(r0).Round(8),
		Reserve1:     decimal.NewFromFloat(r1).Round(8),
		Wallets:      len(wallets),
		WalletEquity: equity.Round(8),
		Candles:      len(b.Engine.Feed()),
	}, nil
}

// Close releases resources in reverse order of creation.
func (b *Bootstrap) Close() {
	if b.unsubscribe != nil {
		b.unsubscribe()
	}
	if b.Broadcaster != nil {
		b.Broadcaster.Close()
	}
	if b.Storage != nil {
		if err := b.Storage.Close(); err != nil {
			slog.Warn("Failed to close storage", slog.Any("error", err))
		}
	}
}
