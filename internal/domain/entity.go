package domain

import (
	"time"
)

// TransactionRecord is the persisted form of a committed swap
type TransactionRecord struct {
	ID                 string    `gorm:"primaryKey" json:"id"`
	RunID              string    `gorm:"index" json:"run_id"`
	Wallet             string    `gorm:"index" json:"wallet"`
	Direction          string    `json:"direction"`
	TokenA             string    `json:"token_a"`
	TokenB             string    `json:"token_b"`
	AmountChangeTokenA float64   `json:"amount_change_token_a"`
	AmountChangeTokenB float64   `json:"amount_change_token_b"`
	CreatedAt          time.Time `json:"created_at"`
}

// CandleRecord is one price feed bucket of a run (upserted on every sample)
type CandleRecord struct {
	RunID       string    `gorm:"primaryKey" json:"run_id"`
	BucketStart int64     `gorm:"primaryKey" json:"time"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BalanceRecord is one ledger cell captured at the end of a run
type BalanceRecord struct {
	RunID     string    `gorm:"primaryKey" json:"run_id"`
	Token     string    `gorm:"primaryKey" json:"token"`
	Wallet    string    `gorm:"primaryKey" json:"wallet"`
	Balance   float64   `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// NewTransactionRecord converts a transaction for persistence.
func NewTransactionRecord(runID string, tx TradingTransaction) *TransactionRecord {
	return &TransactionRecord{
		ID:                 tx.ID,
		RunID:              runID,
		Wallet:             tx.Wallet,
		Direction:          tx.Direction.String(),
		TokenA:             tx.TokenA,
		TokenB:             tx.TokenB,
		AmountChangeTokenA: tx.AmountChangeTokenA,
		AmountChangeTokenB: tx.AmountChangeTokenB,
	}
}

// Transaction converts the record back to its domain form.
func (r TransactionRecord) Transaction() TradingTransaction {
	return TradingTransaction{
		ID:                 r.ID,
		Wallet:             r.Wallet,
		Direction:          Direction(r.Direction),
		TokenA:             r.TokenA,
		TokenB:             r.TokenB,
		AmountChangeTokenA: r.AmountChangeTokenA,
		AmountChangeTokenB: r.AmountChangeTokenB,
	}
}

// Candle converts the record back to its domain form.
func (r CandleRecord) Candle() Candle {
	return Candle{
		BucketStart: r.BucketStart,
		Open:        r.Open,
		High:        r.High,
		Low:         r.Low,
		Close:       r.Close,
	}
}
