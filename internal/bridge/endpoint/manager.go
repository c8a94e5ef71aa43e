// Package endpoint provides resilient access to the remote nodes of one network.
package endpoint

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Manager routes calls to one of several endpoints. A call is retried on the
// current endpoint with a fixed delay up to MaxAttempts; a disconnect or an
// exhausted retry budget rotates to the next endpoint, round robin.
type Manager[C Conn] struct {
	urls    []string
	dial    Dialer[C]
	opts    Options
	logger  *zap.Logger
	metrics Metrics

	mtx       sync.Mutex
	idx       int
	conn      C
	connected bool
	rotations uint64
}

// NewManager creates a Manager over urls. No connection is opened until the first call.
func NewManager[C Conn](urls []string, dial Dialer[C], opts Options, logger *zap.Logger, metrics Metrics) (*Manager[C], error) {
	if len(urls) == 0 {
		return nil, ErrNoEndpoints
	}
	return &Manager[C]{
		urls:    append([]string(nil), urls...),
		dial:    dial,
		opts:    opts.withDefaults(),
		logger:  logger.Named("endpoint"),
		metrics: metrics,
	}, nil
}

// Rotations returns how many times the endpoint list wrapped around.
func (m *Manager[C]) Rotations() uint64 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.rotations
}

// Current returns the url calls are currently routed to.
func (m *Manager[C]) Current() string {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.urls[m.idx]
}

// Call runs fn against the current endpoint applying the retry, timeout and
// rotation policy. When every endpoint failed the last error is returned
// wrapped in *Error.
func (m *Manager[C]) Call(ctx context.Context, op string, fn func(ctx context.Context, c C) error) error {
	var lastErr error
	for tried := 0; tried < len(m.urls); tried++ {
		url := m.Current()
		conn, err := m.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = &Error{Op: op, Endpoint: url, Attempts: 1, Err: err}
			m.logger.Warn("dial failed, rotating", zap.String("endpoint", url), zap.Error(err))
			m.rotate()
			continue
		}

		attempts, err := m.retry(ctx, op, conn, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = &Error{Op: op, Endpoint: url, Attempts: attempts, Err: err}
		m.logger.Warn("endpoint failed, rotating",
			zap.String("endpoint", url),
			zap.String("operation", op),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		m.rotate()
	}
	return lastErr
}

func (m *Manager[C]) retry(ctx context.Context, op string, conn C, fn func(ctx context.Context, c C) error) (int, error) {
	attempts := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(m.opts.RetryDelay), uint64(m.opts.MaxAttempts-1)),
		ctx,
	)
	err := backoff.RetryNotify(func() error {
		attempts++
		started := time.Now()
		err := m.attempt(ctx, conn, fn)
		m.metrics.ObserveAttempt(op, err, started)
		if err != nil && (IsDisconnect(err) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, next time.Duration) {
		m.logger.Debug("retrying call",
			zap.String("operation", op),
			zap.Int("attempt", attempts),
			zap.Duration("delay", next),
			zap.Error(err),
		)
	})
	return attempts, err
}

// attempt races fn against the per-call timeout and the drop notification.
func (m *Manager[C]) attempt(ctx context.Context, conn C, fn func(ctx context.Context, c C) error) error {
	callCtx, cancel := context.WithTimeout(ctx, m.opts.CallTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn(callCtx, conn)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return err
	case <-conn.Dropped():
		return ErrDisconnected
	case <-callCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w after %s", ErrTimeout, m.opts.CallTimeout)
	}
}

func (m *Manager[C]) connect(ctx context.Context) (C, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.connected {
		select {
		case <-m.conn.Dropped():
			m.conn.Close()
			m.connected = false
		default:
			return m.conn, nil
		}
	}

	conn, err := m.dial(ctx, m.urls[m.idx])
	if err != nil {
		var zero C
		return zero, err
	}
	m.conn = conn
	m.connected = true
	return conn, nil
}

func (m *Manager[C]) rotate() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.connected {
		m.conn.Close()
		m.connected = false
	}
	m.idx = (m.idx + 1) % len(m.urls)
	wrapped := m.idx == 0
	if wrapped {
		m.rotations++
	}
	m.metrics.ObserveRotation(wrapped)
	m.logger.Info("rotated endpoint", zap.String("endpoint", m.urls[m.idx]), zap.Bool("wrapped", wrapped))
}

// Close releases the current connection.
func (m *Manager[C]) Close() {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if m.connected {
		m.conn.Close()
		m.connected = false
	}
}
