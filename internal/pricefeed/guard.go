package pricefeed

import (
	"sync"

	"amm_sim/internal/domain"
)

// Guard is the subscriber-side ordering filter: it rejects any candle whose
// bucket starts before the last accepted one. Same-bucket updates pass.
type Guard struct {
	mu   sync.Mutex
	last *domain.Candle
}

// Accept reports whether c should be used, and remembers it if so.
func (g *Guard) Accept(c domain.Candle) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last != nil && c.BucketStart < g.last.BucketStart {
		return false
	}
	g.last = &c
	return true
}

// Last returns the last accepted candle.
func (g *Guard) Last() (domain.Candle, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.last == nil {
		return domain.Candle{}, false
	}
	return *g.last, true
}
