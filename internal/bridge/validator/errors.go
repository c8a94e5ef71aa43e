package validator

import (
	"errors"
	"fmt"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

var (
	ErrInvalidBlockHeader = errors.New("invalid block header")
	ErrNoParent           = errors.New("no parent")
	ErrInvalidProofOfWork = errors.New("invalid proof of work")
	ErrInvalidMerkleRoot  = errors.New("invalid merkle root")
)

// Error describes a rejected submission. Reason is one of the package sentinels.
type Error struct {
	Reason  error
	Network model.NetworkID
	Height  uint64
	Hash    string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: network %s height %d hash %s", e.Reason, e.Network, e.Height, e.Hash)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func newError(reason error, b *model.Block, err error) *Error {
	return &Error{
		Reason:  reason,
		Network: b.Network,
		Height:  b.Height,
		Hash:    b.Hash,
		Err:     err,
	}
}
