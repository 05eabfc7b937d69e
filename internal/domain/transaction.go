package domain

// TradingPair describes the two tokens a pool trades.
type TradingPair struct {
	Address    string `json:"address"`
	BaseToken  string `json:"base_token"`  // token A, reserve0
	QuoteToken string `json:"quote_token"` // token B, reserve1
}

// DefaultPair is the mock pair used when no pair is configured.
var DefaultPair = TradingPair{
	Address:    "0xmock",
	BaseToken:  "MOCKPACO",
	QuoteToken: "MOCKUSDT",
}

// SourceToken returns the token a wallet spends for the given direction.
func (p TradingPair) SourceToken(d Direction) string {
	if d == Buy {
		return p.QuoteToken
	}
	return p.BaseToken
}

// TargetToken returns the token a wallet receives for the given direction.
func (p TradingPair) TargetToken(d Direction) string {
	if d == Buy {
		return p.BaseToken
	}
	return p.QuoteToken
}

// TradingTransaction is the immutable result of one completed swap.
//
// For BUY, AmountChangeTokenA is the base amount paid out by the pool and
// AmountChangeTokenB the quote amount paid in. For SELL it is the reverse:
// AmountChangeTokenA flows in, AmountChangeTokenB flows out.
type TradingTransaction struct {
	ID                 string    `json:"id"`
	Wallet             string    `json:"wallet,omitempty"`
	Direction          Direction `json:"direction"`
	TokenA             string    `json:"token_a"`
	TokenB             string    `json:"token_b"`
	AmountChangeTokenA float64   `json:"amount_change_token_a"`
	AmountChangeTokenB float64   `json:"amount_change_token_b"`
}
