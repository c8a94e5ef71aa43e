// Package canceller finds enqueued operations the counterparty network never
// acted on and hands them off for cancellation.
package canceller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/internal/clock"
)

const defaultInterval = 10 * time.Second

// Config tunes the cancellation scan.
type Config struct {
	MaxDelta time.Duration
	Interval time.Duration
}

// Canceller periodically scans the registry. Each operation id is handed to
// the broadcaster once per process.
type Canceller struct {
	cfg         Config
	registry    Registry
	timestamps  Timestamps
	broadcaster Broadcaster
	metrics     Metrics
	logger      *zap.Logger
	signal      <-chan struct{}
	wait        func(context.Context, time.Duration, <-chan struct{}) error

	emitted map[string]struct{}
}

// New builds a Canceller. signal, typically the processor canon notification,
// triggers a scan before the interval elapses.
func New(
	cfg Config,
	registry Registry,
	timestamps Timestamps,
	broadcaster Broadcaster,
	metrics Metrics,
	logger *zap.Logger,
	signal <-chan struct{},
) (*Canceller, error) {
	if metrics == nil {
		return nil, errors.New("canceller metrics is required")
	}
	if cfg.MaxDelta <= 0 {
		return nil, fmt.Errorf("max delta must be positive, got %s", cfg.MaxDelta)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	return &Canceller{
		cfg:         cfg,
		registry:    registry,
		timestamps:  timestamps,
		broadcaster: broadcaster,
		metrics:     metrics,
		logger:      logger.Named("canceller"),
		signal:      signal,
		wait:        clock.WaitOrSignal,
		emitted:     make(map[string]struct{}),
	}, nil
}

// Run scans until ctx is canceled. A registry failure stops the loop.
func (c *Canceller) Run(ctx context.Context) error {
	for {
		if err := c.scan(ctx); err != nil {
			return err
		}
		if err := c.wait(ctx, c.cfg.Interval, c.signal); err != nil {
			return err
		}
	}
}

func (c *Canceller) scan(ctx context.Context) error {
	latest := c.timestamps.LatestTimestamps()
	if len(latest) == 0 {
		return nil
	}

	started := time.Now()
	ops, err := c.registry.GetCancellable(c.cfg.MaxDelta, latest)
	c.metrics.ObserveScan(err, len(ops), started)
	if err != nil {
		return fmt.Errorf("scan cancellable operations: %w", err)
	}

	current := make(map[string]struct{}, len(ops))
	var fresh []model.Operation
	for _, op := range ops {
		current[op.ID] = struct{}{}
		if _, done := c.emitted[op.ID]; !done {
			fresh = append(fresh, op)
		}
	}
	// only ids still reported by the bounded scan can come back
	for id := range c.emitted {
		if _, ok := current[id]; !ok {
			delete(c.emitted, id)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	err = c.broadcaster.Cancellable(ctx, fresh)
	c.metrics.ObserveEmitted(err, len(fresh))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("hand off cancellable operations failed, retrying next scan", zap.Int("operations", len(fresh)), zap.Error(err))
		return nil
	}
	for _, op := range fresh {
		c.emitted[op.ID] = struct{}{}
		c.logger.Info("operation cancellable",
			zap.String("operation", op.ID),
			zap.Stringer("origin", op.OriginNetwork),
			zap.Stringer("destination", op.DestinationNetwork),
			zap.Time("enqueued_at", op.State.Timestamp),
		)
	}
	return nil
}
