package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"amm_sim/internal/domain"
	"amm_sim/internal/event"
)

// Sequencer is the single-threaded command processor in front of an Engine.
// Callers submit numbered commands; the loop applies them strictly in
// sequence order and halts on a gap.
type Sequencer struct {
	inbox   chan event.Event
	engine  *Engine
	nextSeq uint64

	// submitMu serializes sequence assignment with the inbox send so that
	// concurrent submitters never reorder numbers.
	submitMu  sync.Mutex
	submitSeq uint64

	dumpFile string

	// done is closed when Run returns, releasing callers waiting on a reply.
	done     chan struct{}
	stopOnce sync.Once
}

// NewSequencer creates a sequencer driving eng.
func NewSequencer(inboxSize int, eng *Engine) *Sequencer {
	return &Sequencer{
		inbox:     make(chan event.Event, inboxSize),
		engine:    eng,
		nextSeq:   1,
		submitSeq: 1,
		dumpFile:  "panic_dump.json",
		done:      make(chan struct{}),
	}
}

// SetDumpFile changes where DumpState writes on a halt.
func (s *Sequencer) SetDumpFile(path string) {
	s.dumpFile = path
}

// Inbox returns the event channel for callers that number events themselves.
// Mixing Inbox with Swap/UpdateBalance on one sequencer breaks numbering.
func (s *Sequencer) Inbox() chan<- event.Event {
	return s.inbox
}

// Run starts the main event loop. This MUST be run in a single goroutine.
// Once it returns, pending and later Swap/UpdateBalance calls fail with
// domain.ErrSequencerStopped.
func (s *Sequencer) Run(ctx context.Context) {
	slog.Info("Sequencer started")

	defer s.stopOnce.Do(func() { close(s.done) })
	defer func() {
		if r := recover(); r != nil {
			slog.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			s.DumpState(s.dumpFile)
			panic(fmt.Sprintf("HALTED: %v", r))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Sequencer stopping...")
			return
		case ev := <-s.inbox:
			s.processEvent(ev)
		}
	}
}

func (s *Sequencer) processEvent(ev event.Event) {
	if ev.GetSeq() != s.nextSeq {
		panic(fmt.Errorf("%w: expected %d, got %d", domain.ErrSequenceGap, s.nextSeq, ev.GetSeq()))
	}

	switch e := ev.(type) {
	case *event.SwapRequestEvent:
		s.handleSwap(e)
	case *event.BalanceUpdateEvent:
		s.handleBalanceUpdate(e)
	default:
		slog.Warn("Unknown event type", slog.Any("type", ev.GetType()))
	}

	s.nextSeq++
}

func (s *Sequencer) handleSwap(e *event.SwapRequestEvent) {
	tx, err := s.engine.Swap(e.Wallet, e.Amount, e.Direction)
	reply := e.Reply
	event.ReleaseSwapRequestEvent(e)

	if reply != nil {
		reply <- event.SwapResult{Tx: tx, Err: err}
	}
}

func (s *Sequencer) handleBalanceUpdate(e *event.BalanceUpdateEvent) {
	s.engine.UpdateBalance(e.Token, e.Wallet, e.Balance)
	reply := e.Reply
	event.ReleaseBalanceUpdateEvent(e)

	if reply != nil {
		reply <- nil
	}
}

// submit numbers ev and hands it to the loop. The number is consumed only
// when the send succeeds.
func (s *Sequencer) submit(ctx context.Context, ev event.Event, setSeq func(uint64)) error {
	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	setSeq(s.submitSeq)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return domain.ErrSequencerStopped
	case s.inbox <- ev:
		s.submitSeq++
		return nil
	}
}

// Swap submits a swap command and waits for its result.
func (s *Sequencer) Swap(ctx context.Context, wallet string, amount float64, direction domain.Direction) (domain.TradingTransaction, error) {
	reply := make(chan event.SwapResult, 1)

	ev := event.AcquireSwapRequestEvent()
	ev.Ts = time.Now().UnixMicro()
	ev.Wallet = wallet
	ev.Amount = amount
	ev.Direction = direction
	ev.Reply = reply

	if err := s.submit(ctx, ev, func(seq uint64) { ev.Seq = seq }); err != nil {
		event.ReleaseSwapRequestEvent(ev)
		return domain.TradingTransaction{}, err
	}

	select {
	case <-ctx.Done():
		return domain.TradingTransaction{}, ctx.Err()
	case res := <-reply:
		return res.Tx, res.Err
	case <-s.done:
		select {
		case res := <-reply:
			return res.Tx, res.Err
		default:
			return domain.TradingTransaction{}, domain.ErrSequencerStopped
		}
	}
}

// UpdateBalance submits a ledger overwrite and waits for it to apply.
func (s *Sequencer) UpdateBalance(ctx context.Context, token, wallet string, balance float64) error {
	reply := make(chan error, 1)

	ev := event.AcquireBalanceUpdateEvent()
	ev.Ts = time.Now().UnixMicro()
	ev.Token = token
	ev.Wallet = wallet
	ev.Balance = balance
	ev.Reply = reply

	if err := s.submit(ctx, ev, func(seq uint64) { ev.Seq = seq }); err != nil {
		event.ReleaseBalanceUpdateEvent(ev)
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-reply:
		return err
	case <-s.done:
		select {
		case err := <-reply:
			return err
		default:
			return domain.ErrSequencerStopped
		}
	}
}

// DumpState writes the sequencer position and engine state to a file (for post-mortem).
func (s *Sequencer) DumpState(filename string) {
	slog.Info("Dumping internal state...", slog.String("file", filename))

	data := struct {
		NextSeq uint64 `json:"next_seq"`
		Engine  State  `json:"engine"`
	}{
		NextSeq: s.nextSeq,
		Engine:  s.engine.Snapshot(),
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		slog.Error("Failed to marshal state", slog.Any("error", err))
		return
	}

	err = os.WriteFile(filename, b, 0644)
	if err != nil {
		slog.Error("Failed to write state dump", slog.Any("error", err))
	}
}
