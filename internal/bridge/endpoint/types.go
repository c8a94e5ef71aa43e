//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
package endpoint

import (
	"context"
	"time"
)

type (
	// Conn is a live connection to one remote node.
	Conn interface {
		// Dropped is closed when the underlying transport goes away. A nil
		// channel means the transport gives no such notification.
		Dropped() <-chan struct{}
		Close()
	}

	// Metrics records endpoint manager activity.
	Metrics interface {
		ObserveAttempt(operation string, err error, started time.Time)
		ObserveRotation(wrapped bool)
	}
)

// Dialer opens a connection to url.
type Dialer[C Conn] func(ctx context.Context, url string) (C, error)

// Options tunes retries and timeouts.
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
	CallTimeout time.Duration
}

const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = time.Second
	DefaultCallTimeout = 20 * time.Second
)

func (o Options) withDefaults() Options {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = DefaultRetryDelay
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	return o
}
