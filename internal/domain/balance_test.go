package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedger_MissingKeysReadZero(t *testing.T) {
	l := NewLedger()

	if got := l.Get("MOCKPACO", "0xwalletA"); got != 0 {
		t.Errorf("Expected 0 for missing token, got %v", got)
	}

	l.Set("MOCKPACO", "0xwalletB", 5)
	if got := l.Get("MOCKPACO", "0xwalletA"); got != 0 {
		t.Errorf("Expected 0 for missing wallet, got %v", got)
	}
}

func TestLedger_SetReplaces(t *testing.T) {
	l := NewLedger()
	l.Set("MOCKUSDT", "0xwalletA", 100)
	l.Set("MOCKUSDT", "0xwalletA", 40)

	if got := l.Get("MOCKUSDT", "0xwalletA"); got != 40 {
		t.Errorf("Set should replace, got %v", got)
	}

	t.Run("negative values are stored as given", func(t *testing.T) {
		l.Set("MOCKUSDT", "0xwalletA", -3)
		if got := l.Get("MOCKUSDT", "0xwalletA"); got != -3 {
			t.Errorf("Expected -3, got %v", got)
		}
	})
}

func TestLedger_SnapshotIsIndependent(t *testing.T) {
	l := NewLedger()
	l.Set("MOCKUSDT", "0xwalletA", 100)

	snap := l.Snapshot()
	snap["MOCKUSDT"]["0xwalletA"] = 1

	if got := l.Get("MOCKUSDT", "0xwalletA"); got != 100 {
		t.Errorf("Mutating a snapshot must not touch the ledger, got %v", got)
	}
}

func TestLedger_Replace(t *testing.T) {
	l := NewLedger()
	l.Set("MOCKPACO", "0xold", 7)

	src := Balances{"MOCKUSDT": {"0xnew": 12}}
	l.Replace(src)
	src["MOCKUSDT"]["0xnew"] = 0

	if l.Get("MOCKPACO", "0xold") != 0 {
		t.Error("Replace should drop previous content")
	}
	if l.Get("MOCKUSDT", "0xnew") != 12 {
		t.Error("Replace should copy the given balances")
	}
}

func TestLedger_TotalAndWallets(t *testing.T) {
	l := NewLedger()
	l.Set("MOCKUSDT", "0xb", 10)
	l.Set("MOCKUSDT", "0xa", 15)
	l.Set("MOCKPACO", "0xc", 1)

	if got := l.Total("MOCKUSDT"); got != 25 {
		t.Errorf("Expected total 25, got %v", got)
	}

	wallets := l.Wallets()
	if len(wallets) != 3 || wallets[0] != "0xa" || wallets[1] != "0xb" || wallets[2] != "0xc" {
		t.Errorf("Unexpected wallets %v", wallets)
	}
}

func TestLedger_Valuation(t *testing.T) {
	l := NewLedger()
	l.Set(DefaultPair.BaseToken, "0xwalletA", 2)
	l.Set(DefaultPair.QuoteToken, "0xwalletA", 50)

	value, err := l.Valuation("0xwalletA", DefaultPair, 1.5)
	if err != nil {
		t.Fatalf("Valuation failed: %v", err)
	}
	if !value.Equal(decimal.NewFromInt(53)) {
		t.Errorf("Expected 53, got %v", value)
	}

	_, err = l.Valuation("0xwalletA", DefaultPair, math.Inf(1))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for infinite price, got %v", err)
	}
}
