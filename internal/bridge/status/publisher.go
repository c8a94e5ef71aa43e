package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/bridge-sentinel/internal/clock"
)

const (
	defaultKey      = "bridge-sentinel:status"
	defaultInterval = 10 * time.Second
)

type PublisherConfig struct {
	Key      string
	Interval time.Duration
	// TTL defaults to three intervals so a stalled relay drops out of the cache.
	TTL    time.Duration
	Recent int
}

// Publisher periodically writes the status report to Redis.
type Publisher struct {
	cfg       PublisherConfig
	collector *Collector
	cache     Cache
	metrics   Metrics
	logger    *zap.Logger
	sleep     func(ctx context.Context, d time.Duration) error
}

func NewPublisher(cfg PublisherConfig, collector *Collector, cache Cache, metrics Metrics, logger *zap.Logger) (*Publisher, error) {
	if collector == nil {
		return nil, errors.New("status collector is required")
	}
	if cache == nil {
		return nil, errors.New("status cache is required")
	}
	if strings.TrimSpace(cfg.Key) == "" {
		cfg.Key = defaultKey
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 3 * cfg.Interval
	}
	return &Publisher{
		cfg:       cfg,
		collector: collector,
		cache:     cache,
		metrics:   metrics,
		logger:    logger.Named("status_publisher").With(zap.String("key", cfg.Key)),
		sleep:     clock.SleepWithContext,
	}, nil
}

// Run publishes until ctx is canceled. Publish failures are logged and retried
// on the next tick.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		if err := p.Publish(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("failed to publish status", zap.Error(err))
		}
		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			return err
		}
	}
}

func (p *Publisher) Publish(ctx context.Context) (err error) {
	started := time.Now()
	defer func() {
		p.metrics.Observe(err, started)
	}()

	report, err := p.collector.Collect(p.cfg.Recent)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode status: %w", err)
	}
	if err := p.cache.Set(ctx, p.cfg.Key, payload, p.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("set %s: %w", p.cfg.Key, err)
	}
	return nil
}
