package endpoint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

var (
	ErrDisconnected = errors.New("endpoint disconnected")
	ErrTimeout      = errors.New("endpoint call timed out")
	ErrNoEndpoints  = errors.New("no endpoints configured")
)

// Error is returned once every attempt on every endpoint has failed.
type Error struct {
	Op       string
	Endpoint string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s via %s failed after %d attempts: %v", e.Op, e.Endpoint, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsDisconnect reports whether err means the transport is gone and retrying
// on the same endpoint is pointless.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDisconnected) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) && !errors.Is(err, context.DeadlineExceeded)
}
