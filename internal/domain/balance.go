package domain

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// Balances maps token -> wallet -> balance.
type Balances map[string]map[string]float64

// Clone returns a deep copy.
func (b Balances) Clone() Balances {
	out := make(Balances, len(b))
	for token, wallets := range b {
		w := make(map[string]float64, len(wallets))
		for wallet, v := range wallets {
			w[wallet] = v
		}
		out[token] = w
	}
	return out
}

// Ledger is the single source of truth for holdings.
// A missing token or wallet reads as zero. Values are stored as given:
// Set replaces, never accumulates, and negative values are not rejected.
//
// Ledger is not safe for concurrent use; the engine serializes access.
type Ledger struct {
	balances Balances
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(Balances)}
}

// NewLedgerFrom creates a ledger holding a copy of b.
func NewLedgerFrom(b Balances) *Ledger {
	if b == nil {
		return NewLedger()
	}
	return &Ledger{balances: b.Clone()}
}

// Get returns the balance of wallet in token, 0 if absent.
func (l *Ledger) Get(token, wallet string) float64 {
	return l.balances[token][wallet]
}

// Set stores value as the balance of wallet in token, creating levels as needed.
func (l *Ledger) Set(token, wallet string, value float64) {
	wallets, ok := l.balances[token]
	if !ok {
		wallets = make(map[string]float64)
		l.balances[token] = wallets
	}
	wallets[wallet] = value
}

// Replace swaps the whole ledger content for a copy of b.
func (l *Ledger) Replace(b Balances) {
	if b == nil {
		l.balances = make(Balances)
		return
	}
	l.balances = b.Clone()
}

// Snapshot returns a copy of all balances.
func (l *Ledger) Snapshot() Balances {
	return l.balances.Clone()
}

// Total sums every wallet's balance in token.
func (l *Ledger) Total(token string) float64 {
	var total float64
	for _, v := range l.balances[token] {
		total += v
	}
	return total
}

// Wallets returns every wallet known to the ledger, sorted.
func (l *Ledger) Wallets() []string {
	seen := make(map[string]struct{})
	for _, wallets := range l.balances {
		for w := range wallets {
			seen[w] = struct{}{}
		}
	}
	result := make([]string, 0, len(seen))
	for w := range seen {
		result = append(result, w)
	}
	sort.Strings(result)
	return result
}

// Valuation computes the value of a wallet's holdings in the quote token:
// base balance * price + quote balance.
func (l *Ledger) Valuation(wallet string, pair TradingPair, price float64) (decimal.Decimal, error) {
	base := l.Get(pair.BaseToken, wallet)
	quote := l.Get(pair.QuoteToken, wallet)
	for _, v := range []float64{base, quote, price} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, InvalidArgument("non-finite value in valuation of %s", wallet)
		}
	}

	baseValue := decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(price))
	return baseValue.Add(decimal.NewFromFloat(quote)), nil
}
