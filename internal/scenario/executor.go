package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"amm_sim/internal/domain"
)

// Target is the engine surface a scenario is replayed against.
type Target interface {
	Pair() domain.TradingPair
	// Seed stages a pair clone with the given reserves, replaces the ledger
	// wholesale and commits the clone.
	Seed(reserve0, reserve1 float64, balances domain.Balances) error
	Balance(token, wallet string) float64
	Swap(wallet string, amount float64, direction domain.Direction) (domain.TradingTransaction, error)
}

// StepObserver is told about every executed step. Optional.
type StepObserver func(step Step, tx domain.TradingTransaction)

// Executor replays a scenario's steps in key order, waiting the key
// difference between groups.
type Executor struct {
	target   Target
	sleeper  Sleeper
	observer StepObserver
}

// NewExecutor binds an executor to target. A nil sleeper means RealSleeper.
func NewExecutor(target Target, sleeper Sleeper) *Executor {
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	return &Executor{target: target, sleeper: sleeper}
}

// OnStep registers an observer called after each committed step.
func (e *Executor) OnStep(fn StepObserver) {
	e.observer = fn
}

// Run loads sc into the target and replays it. The first failing step halts
// the replay and its error is returned; state stays as of the last committed
// step. Cancellation is honoured only between key groups.
func (e *Executor) Run(ctx context.Context, sc *Scenario) error {
	if sc == nil {
		return domain.InvalidArgument("nil scenario")
	}

	if err := e.target.Seed(sc.InitialReserves.Reserve0, sc.InitialReserves.Reserve1, sc.InitialBalances); err != nil {
		return fmt.Errorf("seed scenario: %w", err)
	}

	keys := sc.Keys()
	slog.Info("Scenario loaded",
		slog.Int("keys", len(keys)),
		slog.Int("steps", sc.StepCount()),
		slog.Float64("reserve0", sc.InitialReserves.Reserve0),
		slog.Float64("reserve1", sc.InitialReserves.Reserve1),
	)

	var previous int64
	executed := 0
	for _, key := range keys {
		delay := time.Duration(key-previous) * time.Millisecond
		if err := e.sleeper.Sleep(ctx, delay); err != nil {
			slog.Warn("Scenario cancelled", slog.Int64("at_ms", key), slog.Int("executed", executed))
			return err
		}

		for _, step := range sc.Steps[key] {
			if err := e.executeStep(step); err != nil {
				slog.Error("Scenario halted",
					slog.Int64("at_ms", step.Time),
					slog.String("wallet", step.Wallet),
					slog.Int("executed", executed),
					slog.Any("error", err),
				)
				return fmt.Errorf("scenario step at %dms (wallet %s): %w", step.Time, step.Wallet, err)
			}
			executed++
		}
		previous = key
	}

	slog.Info("Scenario completed", slog.Int("executed", executed))
	return nil
}

func (e *Executor) executeStep(step Step) error {
	token := e.target.Pair().SourceToken(step.Direction)
	balance := e.target.Balance(token, step.Wallet)
	amount := balance * step.AmountPercentage

	slog.Debug("Executing scenario step",
		slog.String("wallet", step.Wallet),
		slog.String("direction", step.Direction.String()),
		slog.Float64("amount_percentage", step.AmountPercentage),
		slog.Float64("amount", amount),
	)

	tx, err := e.target.Swap(step.Wallet, amount, step.Direction)
	if err != nil {
		return err
	}
	if e.observer != nil {
		e.observer(step, tx)
	}
	return nil
}
