// Package syncer follows the tip of one network and feeds new blocks to the processor.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/internal/clock"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/workerpool"
)

// Config tunes one network syncer.
type Config struct {
	Network model.NetworkID
	Name    string
	// StartHeight is fetched as the ledger initialization block when the
	// ledger is empty.
	StartHeight   uint64
	BatchSize     uint64
	FetchWorkers  int
	PollInterval  time.Duration
	RetryInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.BatchSize == 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.FetchWorkers <= 0 {
		c.FetchWorkers = defaultFetchWorkers
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.RetryInterval <= 0 {
		c.RetryInterval = defaultRetryInterval
	}
	return c
}

// Syncer fetches blocks of one network strictly above the ledger latest
// block and submits them in height order.
type Syncer struct {
	cfg       Config
	source    Source
	ledger    Ledger
	processor Processor
	metrics   Metrics
	logger    *zap.Logger
	sleep     func(context.Context, time.Duration) error
	signal    <-chan struct{}
}

// New builds a Syncer. signal, when not nil, cuts the poll interval short.
func New(
	cfg Config,
	source Source,
	ledger Ledger,
	processor Processor,
	metrics Metrics,
	logger *zap.Logger,
	signal <-chan struct{},
) (*Syncer, error) {
	if metrics == nil {
		return nil, errors.New("syncer metrics is required")
	}
	cfg = cfg.withDefaults()
	return &Syncer{
		cfg:       cfg,
		source:    source,
		ledger:    ledger,
		processor: processor,
		metrics:   metrics,
		logger:    logger.Named("syncer").With(zap.String("network", cfg.Name)),
		sleep:     clock.SleepWithContext,
		signal:    signal,
	}, nil
}

// Run syncs until ctx is canceled or the processor rejects a batch. Fetch
// failures are logged and the cycle is retried.
func (s *Syncer) Run(ctx context.Context) error {
	s.logger.Info("syncer started", zap.Uint64("start_height", s.cfg.StartHeight))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.run(ctx); err != nil {
			return err
		}
	}
}

func (s *Syncer) run(ctx context.Context) error {
	batch, err := s.next(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("fetch cycle failed, backing off", zap.Error(err), zap.Duration("sleep", s.cfg.RetryInterval))
		return s.sleep(ctx, s.cfg.RetryInterval)
	}
	if batch == nil {
		return s.wait(ctx, s.cfg.PollInterval)
	}

	started := time.Now()
	err = s.processor.Submit(ctx, *batch)
	s.metrics.ObserveSubmit(err, len(batch.Blocks), started)
	if err != nil {
		return fmt.Errorf("submit batch: %w", err)
	}
	last := batch.Blocks[len(batch.Blocks)-1]
	s.logger.Debug("batch applied",
		zap.Bool("init", batch.Init),
		zap.Int("blocks", len(batch.Blocks)),
		zap.Uint64("latest", last.Height),
	)
	return nil
}

// next returns the next batch to submit or nil when the ledger is at the remote tip.
func (s *Syncer) next(ctx context.Context) (*model.Batch, error) {
	if !s.ledger.Initialized() {
		blocks, err := s.fetch(ctx, []uint64{s.cfg.StartHeight})
		if err != nil {
			return nil, err
		}
		return &model.Batch{Network: s.cfg.Network, Init: true, Blocks: blocks}, nil
	}

	latest, ok := s.ledger.Latest()
	if !ok {
		return nil, errors.New("initialized ledger without latest block")
	}

	started := time.Now()
	remote, err := s.source.LatestHeight(ctx)
	s.metrics.ObserveFetchLatest(err, started)
	if err != nil {
		return nil, fmt.Errorf("latest height: %w", err)
	}
	s.metrics.SetHeights(remote, latest.Height)
	if remote <= latest.Height {
		return nil, nil
	}

	to := min(remote, latest.Height+s.cfg.BatchSize)
	heights := make([]uint64, 0, to-latest.Height)
	for h := latest.Height + 1; h <= to; h++ {
		heights = append(heights, h)
	}
	blocks, err := s.fetch(ctx, heights)
	if err != nil {
		return nil, err
	}
	return &model.Batch{Network: s.cfg.Network, Blocks: blocks}, nil
}

func (s *Syncer) fetch(ctx context.Context, heights []uint64) ([]*model.Block, error) {
	started := time.Now()
	blocks, err := workerpool.Map(ctx, s.cfg.FetchWorkers, heights, s.source.FetchBlock)
	s.metrics.ObserveFetchBlocks(err, len(heights), started)
	if err != nil {
		return nil, fmt.Errorf("fetch heights %d..%d: %w", heights[0], heights[len(heights)-1], err)
	}
	return blocks, nil
}

func (s *Syncer) wait(ctx context.Context, d time.Duration) error {
	if s.signal == nil {
		return s.sleep(ctx, d)
	}
	return clock.WaitOrSignal(ctx, d, s.signal)
}
