package domain

// Candle is one OHLC entry of the price feed, keyed by its bucket start (unix seconds).
type Candle struct {
	BucketStart int64   `json:"time"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
}

// Apply folds a new price sample into the candle.
func (c *Candle) Apply(price float64) {
	if price > c.High {
		c.High = price
	}
	if price < c.Low {
		c.Low = price
	}
	c.Close = price
}

// NewCandle opens a candle with all four prices equal to the first sample.
func NewCandle(bucketStart int64, price float64) Candle {
	return Candle{
		BucketStart: bucketStart,
		Open:        price,
		High:        price,
		Low:         price,
		Close:       price,
	}
}
