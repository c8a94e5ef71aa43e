package registry

import (
	"errors"
	"fmt"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

var (
	ErrNotFound          = errors.New("operation not found")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrUnknownState      = errors.New("unknown operation state")
	ErrMissingID         = errors.New("operation without id")
)

// Error is a rejected registry mutation.
type Error struct {
	Reason error
	ID     string
	From   model.StateKind
	To     model.StateKind
}

func (e *Error) Error() string {
	if e.From == 0 && e.To == 0 {
		return fmt.Sprintf("%s: operation %s", e.Reason, e.ID)
	}
	return fmt.Sprintf("%s: operation %s %s -> %s", e.Reason, e.ID, e.From, e.To)
}

func (e *Error) Unwrap() error {
	return e.Reason
}
