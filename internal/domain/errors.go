package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUninitializedState is returned when a trading operation runs before the pair has reserves.
	ErrUninitializedState = errors.New("pair state not initialized")

	// ErrInsufficientBalance is returned when a wallet cannot cover the source side of a swap.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidArgument is returned for malformed inputs (empty target set, non-positive timeframe, ...).
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDivisionByZero is returned when a price or swap output would divide by a zero reserve.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrSequenceGap is raised by the sequencer when a command arrives out of order.
	ErrSequenceGap = errors.New("sequence gap")

	// ErrSequencerStopped is returned to callers still waiting when the sequencer loop exits.
	ErrSequencerStopped = errors.New("sequencer stopped")
)

// InsufficientBalanceError carries the details of a rejected swap.
type InsufficientBalanceError struct {
	Token     string
	Wallet    string
	Required  float64
	Available float64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: wallet %s needs %g %s, has %g",
		e.Wallet, e.Required, e.Token, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// InvalidArgument wraps ErrInvalidArgument with a reason.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
