package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"amm_sim/internal/domain"
)

// SwapRequest is the body of POST /swap.
type SwapRequest struct {
	Wallet    string           `json:"wallet"`
	Amount    float64          `json:"amount"`
	Direction domain.Direction `json:"direction"`
}

// BalanceRequest is the body of POST /balance.
type BalanceRequest struct {
	Token   string  `json:"token"`
	Wallet  string  `json:"wallet"`
	Balance float64 `json:"balance"`
}

// StateResponse is the body of GET /state.
type StateResponse struct {
	Pair      domain.TradingPair `json:"pair"`
	Reserve0  float64            `json:"reserve0"`
	Reserve1  float64            `json:"reserve1"`
	K         float64            `json:"k"`
	SpotPrice *float64           `json:"spot_price"`
	RunID     string             `json:"run_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewMux exposes the engine's command, query and notification surface.
func NewMux(b *Bootstrap) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /ws", b.Broadcaster.Handler())

	mux.HandleFunc("GET /feed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.Engine.Feed())
	})

	mux.HandleFunc("GET /ledger", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.Engine.Ledger())
	})

	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, b.Metrics.Snapshot())
	})

	mux.HandleFunc("GET /state", func(w http.ResponseWriter, r *http.Request) {
		r0, r1, k := b.Engine.Reserves()
		resp := StateResponse{
			Pair:     b.Engine.Pair(),
			Reserve0: r0,
			Reserve1: r1,
			K:        k,
			RunID:    b.RunID,
		}
		if price, err := b.Engine.SpotPrice(); err == nil {
			resp.SpotPrice = &price
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("GET /summary", func(w http.ResponseWriter, r *http.Request) {
		summary, err := b.Summary()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	})

	mux.HandleFunc("POST /swap", func(w http.ResponseWriter, r *http.Request) {
		var req SwapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		tx, err := b.Sequencer.Swap(r.Context(), req.Wallet, req.Amount, req.Direction)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	})

	mux.HandleFunc("POST /balance", func(w http.ResponseWriter, r *http.Request) {
		var req BalanceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		if err := b.Sequencer.UpdateBalance(r.Context(), req.Token, req.Wallet, req.Balance); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUninitializedState), errors.Is(err, domain.ErrDivisionByZero),
		errors.Is(err, domain.ErrSequencerStopped):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", slog.Any("error", err))
	}
}
