package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"amm_sim/internal/amm"
	"amm_sim/internal/domain"
	"amm_sim/internal/infra"
	"amm_sim/internal/pricefeed"
	"amm_sim/internal/scenario"
)

// Engine owns one trading pair, the wallet ledger and the price feed.
// Every mutation runs under a single writer lock and commits a staged clone
// of the pair, so a failed command leaves no partial state behind.
type Engine struct {
	mu     sync.RWMutex
	pair   *amm.PairState
	ledger *domain.Ledger
	feed   *pricefeed.Aggregator

	// notifyMu is taken before mu is released so candles reach subscribers
	// in commit order.
	notifyMu sync.Mutex

	subsMu    sync.Mutex
	subs      []subscription
	nextSubID uint64

	now     func() time.Time
	sleeper scenario.Sleeper
	metrics *infra.Metrics
	journal domain.Journal
	runID   string
}

type subscription struct {
	id uint64
	fn domain.CandleSubscriber
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used to bucket price samples.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithSleeper sets how scenario replay waits between step keys.
func WithSleeper(s scenario.Sleeper) Option {
	return func(e *Engine) {
		if s != nil {
			e.sleeper = s
		}
	}
}

// WithMetrics enables metric recording.
func WithMetrics(m *infra.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithJournal records committed transactions and candles under runID.
func WithJournal(j domain.Journal, runID string) Option {
	return func(e *Engine) {
		e.journal = j
		e.runID = runID
	}
}

// NewEngine creates an engine for pair with candles of timeframeSeconds.
// The pair starts uninitialized.
func NewEngine(pair domain.TradingPair, timeframeSeconds int, opts ...Option) (*Engine, error) {
	feed, err := pricefeed.NewAggregator(timeframeSeconds)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		pair:    amm.NewPairState(pair),
		ledger:  domain.NewLedger(),
		feed:    feed,
		now:     time.Now,
		sleeper: scenario.RealSleeper{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Pair returns the token pair descriptor.
func (e *Engine) Pair() domain.TradingPair {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pair.Pair()
}

// RunID returns the journal run identifier, empty when no journal is set.
func (e *Engine) RunID() string {
	return e.runID
}

// Initialize sets the pool reserves.
func (e *Engine) Initialize(reserve0, reserve1 float64) error {
	if err := validateReserves(reserve0, reserve1); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.pair.Initialize(reserve0, reserve1)
	return nil
}

// Seed reseeds the pool and replaces the ledger wholesale.
func (e *Engine) Seed(reserve0, reserve1 float64, balances domain.Balances) error {
	if err := validateReserves(reserve0, reserve1); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	staged := e.pair.Clone()
	staged.UpdateReserves(reserve0, reserve1)
	e.ledger.Replace(balances)
	e.pair = staged
	return nil
}

func validateReserves(reserve0, reserve1 float64) error {
	if !isFinite(reserve0) || !isFinite(reserve1) || reserve0 < 0 || reserve1 < 0 {
		return domain.InvalidArgument("reserves must be finite and non-negative, got %g/%g", reserve0, reserve1)
	}
	return nil
}

// Swap executes a trade for wallet. amount is denominated in the source
// token: quote for BUY, base for SELL.
func (e *Engine) Swap(wallet string, amount float64, direction domain.Direction) (domain.TradingTransaction, error) {
	start := time.Now()

	e.mu.Lock()
	tx, candle, err := e.swapLocked(wallet, amount, direction)
	if err != nil {
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.RecordRejected()
		}
		slog.Debug("Swap rejected",
			slog.String("wallet", wallet),
			slog.String("direction", direction.String()),
			slog.Float64("amount", amount),
			slog.Any("error", err),
		)
		return domain.TradingTransaction{}, err
	}
	e.notifyMu.Lock()
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordSwap(time.Since(start).Nanoseconds())
	}
	e.record(tx, candle)
	e.notify(candle)
	e.notifyMu.Unlock()

	return tx, nil
}

func (e *Engine) swapLocked(wallet string, amount float64, direction domain.Direction) (domain.TradingTransaction, domain.Candle, error) {
	if !direction.Valid() {
		return domain.TradingTransaction{}, domain.Candle{}, domain.InvalidArgument("unknown direction %q", direction)
	}
	if !isFinite(amount) || amount < 0 {
		return domain.TradingTransaction{}, domain.Candle{}, domain.InvalidArgument("swap amount must be finite and non-negative, got %g", amount)
	}
	if !e.pair.Initialized() {
		return domain.TradingTransaction{}, domain.Candle{}, domain.ErrUninitializedState
	}

	pair := e.pair.Pair()
	source := pair.SourceToken(direction)
	available := e.ledger.Get(source, wallet)
	if available < amount {
		return domain.TradingTransaction{}, domain.Candle{}, &domain.InsufficientBalanceError{
			Token:     source,
			Wallet:    wallet,
			Required:  amount,
			Available: available,
		}
	}

	staged := e.pair.Clone()
	tx, err := staged.Swap(amount, direction)
	if err != nil {
		return domain.TradingTransaction{}, domain.Candle{}, err
	}
	r0, r1 := staged.Reserves()
	if !isFinite(r0) || !isFinite(r1) || !isFinite(staged.K()) ||
		!isFinite(tx.AmountChangeTokenA) || !isFinite(tx.AmountChangeTokenB) {
		return domain.TradingTransaction{}, domain.Candle{}, fmt.Errorf("%w: degenerate swap result, reserves %g/%g", domain.ErrDivisionByZero, r0, r1)
	}
	price, err := staged.SpotPrice()
	if err != nil {
		return domain.TradingTransaction{}, domain.Candle{}, err
	}
	if !isFinite(price) {
		return domain.TradingTransaction{}, domain.Candle{}, fmt.Errorf("%w: non-finite spot price", domain.ErrDivisionByZero)
	}
	tx.Wallet = wallet

	base := e.ledger.Get(pair.BaseToken, wallet)
	quote := e.ledger.Get(pair.QuoteToken, wallet)
	if direction == domain.Buy {
		base += tx.AmountChangeTokenA
		quote -= tx.AmountChangeTokenB
	} else {
		base -= tx.AmountChangeTokenA
		quote += tx.AmountChangeTokenB
	}
	e.ledger.Set(pair.BaseToken, wallet, base)
	e.ledger.Set(pair.QuoteToken, wallet, quote)

	candle := e.feed.Sample(unixSeconds(e.now()), price)
	e.pair = staged

	return tx, candle, nil
}

// record writes to the journal. Journal failures are logged, never returned:
// the swap is already committed in memory.
func (e *Engine) record(tx domain.TradingTransaction, c domain.Candle) {
	if e.journal == nil {
		return
	}
	if err := e.journal.SaveTransaction(e.runID, tx); err != nil {
		slog.Error("Failed to journal transaction", slog.String("id", tx.ID), slog.Any("error", err))
		if e.metrics != nil {
			e.metrics.RecordError()
		}
	}
	if err := e.journal.UpsertCandle(e.runID, c); err != nil {
		slog.Error("Failed to journal candle", slog.Int64("bucket", c.BucketStart), slog.Any("error", err))
		if e.metrics != nil {
			e.metrics.RecordError()
		}
	}
}

func (e *Engine) notify(c domain.Candle) {
	e.subsMu.Lock()
	subs := make([]subscription, len(e.subs))
	copy(subs, e.subs)
	e.subsMu.Unlock()

	for _, s := range subs {
		s.fn(c)
	}
	if e.metrics != nil && len(subs) > 0 {
		e.metrics.RecordCandle()
	}
}

// Subscribe registers fn for every candle produced by a committed swap and
// returns a function that removes it. fn runs on the swapping goroutine and
// must not call back into Swap.
func (e *Engine) Subscribe(fn domain.CandleSubscriber) (unsubscribe func()) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	e.nextSubID++
	id := e.nextSubID
	e.subs = append(e.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			e.subsMu.Lock()
			defer e.subsMu.Unlock()
			for i, s := range e.subs {
				if s.id == id {
					e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// UpdateBalance overwrites one ledger cell without trade semantics.
func (e *Engine) UpdateBalance(token, wallet string, balance float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledger.Set(token, wallet, balance)
}

// Balance returns the wallet's balance in token, 0 if unknown.
func (e *Engine) Balance(token, wallet string) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Get(token, wallet)
}

// Ledger returns a snapshot of all balances.
func (e *Engine) Ledger() domain.Balances {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.Snapshot()
}

// Feed returns all candles ordered by bucket start.
func (e *Engine) Feed() []domain.Candle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.feed.Candles()
}

// FeedMap returns the price feed keyed by bucket start.
func (e *Engine) FeedMap() map[int64]domain.Candle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.feed.Snapshot()
}

// SpotPrice returns reserve1/reserve0.
func (e *Engine) SpotPrice() (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pair.SpotPrice()
}

// Reserves returns the current reserves and k.
func (e *Engine) Reserves() (reserve0, reserve1, k float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r0, r1 := e.pair.Reserves()
	return r0, r1, e.pair.K()
}

// LoadScenario seeds the engine from sc and replays its steps, blocking
// until the replay completes, halts on a failing step, or ctx is cancelled.
func (e *Engine) LoadScenario(ctx context.Context, sc *scenario.Scenario) error {
	exec := scenario.NewExecutor(e, e.sleeper)
	if e.metrics != nil {
		exec.OnStep(func(scenario.Step, domain.TradingTransaction) {
			e.metrics.RecordScenarioStep()
		})
	}

	err := exec.Run(ctx, sc)
	if err != nil && e.metrics != nil {
		e.metrics.RecordError()
	}
	return err
}

// StartScenario runs LoadScenario in the background. The returned channel
// receives exactly one value (nil on success) and is then closed.
func (e *Engine) StartScenario(ctx context.Context, sc *scenario.Scenario) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- e.LoadScenario(ctx, sc)
	}()
	return done
}

// State is a point-in-time copy of the engine for dumps and reports.
type State struct {
	Pair     domain.TradingPair `json:"pair"`
	Reserve0 float64            `json:"reserve0"`
	Reserve1 float64            `json:"reserve1"`
	K        float64            `json:"k"`
	Ledger   domain.Balances    `json:"ledger"`
	Feed     []domain.Candle    `json:"feed"`
}

// Snapshot returns the current State.
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r0, r1 := e.pair.Reserves()
	return State{
		Pair:     e.pair.Pair(),
		Reserve0: r0,
		Reserve1: r1,
		K:        e.pair.K(),
		Ledger:   e.ledger.Snapshot(),
		Feed:     e.feed.Candles(),
	}
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
