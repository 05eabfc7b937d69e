// Package pricefeed turns spot price samples into fixed-width OHLC candles.
package pricefeed

import (
	"math"
	"sort"

	"amm_sim/internal/domain"
)

// Aggregator buckets price samples by timeframe. Every sample is recorded;
// ordering of notifications is the consumer's concern (see Guard).
//
// Aggregator is not safe for concurrent use.
type Aggregator struct {
	timeframe int64
	candles   map[int64]*domain.Candle
	latest    *domain.Candle
}

// NewAggregator creates an aggregator with the given bucket width in seconds.
func NewAggregator(timeframeSeconds int) (*Aggregator, error) {
	if timeframeSeconds <= 0 {
		return nil, domain.InvalidArgument("timeframe must be positive, got %d", timeframeSeconds)
	}
	return &Aggregator{
		timeframe: int64(timeframeSeconds),
		candles:   make(map[int64]*domain.Candle),
	}, nil
}

// Timeframe returns the bucket width in seconds.
func (a *Aggregator) Timeframe() int {
	return int(a.timeframe)
}

// BucketStart aligns a sample time to the start of its bucket.
func (a *Aggregator) BucketStart(currentTimeSeconds float64) int64 {
	tf := float64(a.timeframe)
	return int64(math.Floor(currentTimeSeconds/tf) * tf)
}

// Sample records price at currentTimeSeconds and returns the resulting candle.
func (a *Aggregator) Sample(currentTimeSeconds, price float64) domain.Candle {
	bucket := a.BucketStart(currentTimeSeconds)

	c, ok := a.candles[bucket]
	if ok {
		c.Apply(price)
	} else {
		nc := domain.NewCandle(bucket, price)
		c = &nc
		a.candles[bucket] = c
	}
	a.latest = c
	return *c
}

// Latest returns the candle touched by the most recent sample.
func (a *Aggregator) Latest() (domain.Candle, bool) {
	if a.latest == nil {
		return domain.Candle{}, false
	}
	return *a.latest, true
}

// Len returns the number of buckets.
func (a *Aggregator) Len() int {
	return len(a.candles)
}

// Candles returns the feed ordered by bucket start. Each call builds a fresh
// view, so it can be taken as often as needed.
func (a *Aggregator) Candles() []domain.Candle {
	result := make([]domain.Candle, 0, len(a.candles))
	for _, c := range a.candles {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].BucketStart < result[j].BucketStart
	})
	return result
}

// Snapshot returns the feed keyed by bucket start.
func (a *Aggregator) Snapshot() map[int64]domain.Candle {
	result := make(map[int64]domain.Candle, len(a.candles))
	for k, c := range a.candles {
		result[k] = *c
	}
	return result
}
