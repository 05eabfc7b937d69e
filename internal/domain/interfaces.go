package domain

// Journal records what the engine commits. It is write-mostly: the engine
// never reads it back to restore state.
type Journal interface {
	SaveTransaction(runID string, tx TradingTransaction) error
	UpsertCandle(runID string, c Candle) error
}

// CandleSubscriber receives every candle produced by a committed swap.
type CandleSubscriber func(Candle)
