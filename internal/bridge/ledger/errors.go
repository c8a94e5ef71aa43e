package ledger

import (
	"errors"
	"fmt"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

var (
	ErrNotInitialized     = errors.New("ledger not initialized")
	ErrAlreadyInitialized = errors.New("ledger already initialized")
	ErrNotSubsequent      = errors.New("block is not subsequent to latest")
	ErrWrongNetwork       = errors.New("block belongs to another network")
	ErrPointerInvariant   = errors.New("pointer invariant violated")
)

// Error is a ledger level rejection of a submission.
type Error struct {
	Reason  error
	Network model.NetworkID
	Height  uint64
	Detail  string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: network %s height %d", e.Reason, e.Network, e.Height)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Reason
}
