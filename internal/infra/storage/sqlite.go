package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"amm_sim/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Storage is the run journal: committed transactions, candles and final
// ledgers keyed by run id. It is never read back into an engine.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite journal at dbPath.
func NewStorage(dbPath string) (*Storage, error) {
	// Ensure directory exists
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &Storage{db: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.TransactionRecord{}, &domain.CandleRecord{}, &domain.BalanceRecord{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Transaction Operations
// ======================================================================================

// SaveTransaction appends a committed swap to the run.
func (s *Storage) SaveTransaction(runID string, tx domain.TradingTransaction) error {
	return s.db.Create(domain.NewTransactionRecord(runID, tx)).Error
}

// GetTransactions returns the run's transactions in commit order.
func (s *Storage) GetTransactions(runID string) ([]domain.TradingTransaction, error) {
	var records []domain.TransactionRecord
	if err := s.db.Where("run_id = ?", runID).Order("rowid").Find(&records).Error; err != nil {
		return nil, err
	}

	txs := make([]domain.TradingTransaction, 0, len(records))
	for _, r := range records {
		txs = append(txs, r.Transaction())
	}
	return txs, nil
}

// ======================================================================================
// Candle Operations
// ======================================================================================

// UpsertCandle stores the latest state of a price feed bucket.
func (s *Storage) UpsertCandle(runID string, c domain.Candle) error {
	record := domain.CandleRecord{
		RunID:       runID,
		BucketStart: c.BucketStart,
		Open:        c.Open,
		High:        c.High,
		Low:         c.Low,
		Close:       c.Close,
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}, {Name: "bucket_start"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "updated_at"}),
	}).Create(&record).Error
}

// GetCandles returns the run's candles ordered by bucket start.
func (s *Storage) GetCandles(runID string) ([]domain.Candle, error) {
	var records []domain.CandleRecord
	if err := s.db.Where("run_id = ?", runID).Order("bucket_start").Find(&records).Error; err != nil {
		return nil, err
	}

	candles := make([]domain.Candle, 0, len(records))
	for _, r := range records {
		candles = append(candles, r.Candle())
	}
	return candles, nil
}

// ======================================================================================
// Ledger Operations
// ======================================================================================

// SaveLedger writes every ledger cell of the run, replacing earlier snapshots.
func (s *Storage) SaveLedger(runID string, balances domain.Balances) error {
	records := make([]domain.BalanceRecord, 0)
	for token, wallets := range balances {
		for wallet, v := range wallets {
			records = append(records, domain.BalanceRecord{
				RunID:   runID,
				Token:   token,
				Wallet:  wallet,
				Balance: v,
			})
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&domain.BalanceRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.CreateInBatches(records, 500).Error
	})
}

// GetLedger loads the saved ledger of a run. Unknown runs yield an empty ledger.
func (s *Storage) GetLedger(runID string) (domain.Balances, error) {
	var records []domain.BalanceRecord
	if err := s.db.Where("run_id = ?", runID).Find(&records).Error; err != nil {
		return nil, err
	}

	balances := make(domain.Balances)
	for _, r := range records {
		wallets, ok := balances[r.Token]
		if !ok {
			wallets = make(map[string]float64)
			balances[r.Token] = wallets
		}
		wallets[r.Wallet] = r.Balance
	}
	return balances, nil
}
