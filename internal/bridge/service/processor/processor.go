// Package processor applies fetched blocks to the ledgers and the operation
// registry. A single task owns every write so that one insert at a time is in flight.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/ledger"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/registry"
)

const (
	// blockAccepted labels blocks that passed every stage; rejected blocks are
	// labeled with their error Kind.
	blockAccepted = "accepted"

	handoffBatch        = 100
	defaultHandoffRetry = 15 * time.Second
)

type request struct {
	batch model.Batch
	reply chan error
}

// Processor serializes batches submitted by the syncers.
type Processor struct {
	lanes       map[model.NetworkID]Lane
	registry    Registry
	broadcaster Broadcaster
	archive     Archive
	metrics     Metrics
	logger      *zap.Logger

	requests     chan request
	canon        chan struct{}
	handoffRetry time.Duration
}

// New creates a Processor over lanes. archive may be nil.
func New(
	lanes []Lane,
	reg Registry,
	broadcaster Broadcaster,
	archive Archive,
	metrics Metrics,
	logger *zap.Logger,
) (*Processor, error) {
	if reg == nil {
		return nil, errors.New("processor registry is required")
	}
	if broadcaster == nil {
		return nil, errors.New("processor broadcaster is required")
	}
	if metrics == nil {
		return nil, errors.New("processor metrics is required")
	}
	byNetwork := make(map[model.NetworkID]Lane, len(lanes))
	for _, lane := range lanes {
		if _, dup := byNetwork[lane.Network]; dup {
			return nil, fmt.Errorf("duplicate lane for network %s", lane.Network)
		}
		byNetwork[lane.Network] = lane
	}
	return &Processor{
		lanes:       byNetwork,
		registry:    reg,
		broadcaster: broadcaster,
		archive:     archive,
		metrics:     metrics,
		logger:      logger.Named("processor"),
		requests:     make(chan request),
		canon:        make(chan struct{}, 1),
		handoffRetry: defaultHandoffRetry,
	}, nil
}

// Run handles submitted batches until ctx is canceled. Operations left in the
// registry outbox by an earlier run are handed off first.
func (p *Processor) Run(ctx context.Context) error {
	p.handOff(ctx)

	ticker := time.NewTicker(p.handoffRetry)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-p.requests:
			req.reply <- p.process(ctx, req.batch)
		case <-ticker.C:
			p.handOff(ctx)
		}
	}
}

// Submit hands batch to the processor task and waits for the outcome.
func (p *Processor) Submit(ctx context.Context, batch model.Batch) error {
	req := request{batch: batch, reply: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.requests <- req:
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-req.reply:
		return err
	}
}

// CanonAdvanced is signalled whenever any ledger moved its canon pointer.
func (p *Processor) CanonAdvanced() <-chan struct{} {
	return p.canon
}

// LatestTimestamps returns the latest block time of every initialized ledger.
func (p *Processor) LatestTimestamps() model.LatestTimestamps {
	latest := make(model.LatestTimestamps, len(p.lanes))
	for network, lane := range p.lanes {
		if b, ok := lane.Ledger.Latest(); ok {
			latest[network] = b.Timestamp
		}
	}
	return latest
}

// Snapshots returns the pointer snapshot of every ledger.
func (p *Processor) Snapshots() []model.LedgerSnapshot {
	snapshots := make([]model.LedgerSnapshot, 0, len(p.lanes))
	for _, lane := range p.lanes {
		snapshots = append(snapshots, lane.Ledger.Snapshot())
	}
	return snapshots
}

func (p *Processor) process(ctx context.Context, batch model.Batch) error {
	lane, ok := p.lanes[batch.Network]
	if !ok {
		return &Error{Network: batch.Network, Kind: KindInternal, Err: ErrUnknownNetwork}
	}
	// Blocks committed before a rejection may have witnessed operations too.
	defer p.handOff(ctx)

	started := time.Now()
	logger := p.logger.With(zap.String("network", lane.Name))
	for i, b := range batch.Blocks {
		if i > 0 {
			if err := ctx.Err(); err != nil {
				return p.fail(lane, b, i, err, started)
			}
		}
		blockStarted := time.Now()
		if err := p.processBlock(ctx, lane, b, batch.Init && i == 0); err != nil {
			kind := KindOf(err)
			p.metrics.ObserveBlock(lane.Name, string(kind), blockStarted)
			logger.Error("block rejected",
				zap.Uint64("height", b.Height),
				zap.String("hash", b.Hash),
				zap.Int("position", i),
				zap.String("kind", string(kind)),
				zap.Error(err),
			)
			return p.fail(lane, b, i, err, started)
		}
		p.metrics.ObserveBlock(lane.Name, blockAccepted, blockStarted)
	}

	p.metrics.ObserveBatch(lane.Name, nil, len(batch.Blocks), started)
	p.metrics.ObservePointers(lane.Ledger.Snapshot())
	return nil
}

func (p *Processor) fail(lane Lane, b *model.Block, position int, err error, started time.Time) error {
	procErr := &Error{Network: lane.Network, Height: b.Height, Position: position, Kind: KindOf(err), Err: err}
	p.metrics.ObserveBatch(lane.Name, procErr, position, started)
	p.metrics.ObservePointers(lane.Ledger.Snapshot())
	return procErr
}

// processBlock extracts and applies the operations of a new canon block before
// the ledger write, so a rejected block leaves both the ledger and its
// operations untouched and can be submitted again.
func (p *Processor) processBlock(ctx context.Context, lane Lane, b *model.Block, init bool) error {
	var (
		canon   *model.Block
		applied registry.ApplyResult
	)
	precommit := func(res ledger.InsertResult) error {
		if !res.CanonAdvanced {
			return nil
		}
		ops, err := lane.Extractor.Extract(res.Canon)
		if err != nil {
			return err
		}
		if len(ops) > 0 {
			if applied, err = p.registry.Apply(ops); err != nil {
				return err
			}
		}
		canon = res.Canon
		return nil
	}

	if init {
		if err := lane.Ledger.InitWith(b, precommit); err != nil {
			return err
		}
	} else if _, err := lane.Ledger.InsertWith(b, precommit); err != nil {
		return err
	}
	if canon == nil {
		return nil
	}
	p.notifyCanon()

	if applied.Empty() {
		return nil
	}
	p.metrics.ObserveOperations(lane.Name, len(applied.Recorded), len(applied.Transitioned), applied.Ignored)
	p.logger.Info("operations applied",
		zap.String("network", lane.Name),
		zap.Uint64("canon", canon.Height),
		zap.Int("recorded", len(applied.Recorded)),
		zap.Int("transitioned", len(applied.Transitioned)),
		zap.Int("ignored", applied.Ignored),
	)
	p.archiveEvents(ctx, canon, applied)
	return nil
}

// handOff drains the registry outbox into the broadcaster. An operation stays
// in the outbox until the broadcaster accepted it, so a failed handoff is
// retried on the next batch or tick.
func (p *Processor) handOff(ctx context.Context) {
	for {
		ops, err := p.registry.Pending(handoffBatch)
		if err != nil {
			p.logger.Error("read handoff outbox", zap.Error(err))
			return
		}
		if len(ops) == 0 {
			return
		}
		if err := p.broadcaster.Executable(ctx, ops); err != nil {
			p.logger.Warn("handoff deferred", zap.Int("operations", len(ops)), zap.Error(err))
			return
		}
		ids := make([]string, 0, len(ops))
		for _, op := range ops {
			ids = append(ids, op.ID)
		}
		if err := p.registry.Acknowledge(ids); err != nil {
			p.logger.Error("acknowledge handoff", zap.Int("operations", len(ops)), zap.Error(err))
			return
		}
		if len(ops) < handoffBatch {
			return
		}
	}
}

func (p *Processor) notifyCanon() {
	select {
	case p.canon <- struct{}{}:
	default:
	}
}

// archiveEvents is best effort: the registry is the source of truth.
func (p *Processor) archiveEvents(ctx context.Context, canon *model.Block, applied registry.ApplyResult) {
	if p.archive == nil {
		return
	}
	for _, ops := range [][]model.Operation{applied.Recorded, applied.Transitioned} {
		for _, op := range ops {
			if err := p.archive.Add(ctx, eventOf(canon, op)); err != nil {
				p.logger.Warn("archive event dropped", zap.String("operation", op.ID), zap.Error(err))
			}
		}
	}
}

func eventOf(canon *model.Block, op model.Operation) model.OperationEvent {
	return model.OperationEvent{
		OperationID:        op.ID,
		Kind:               op.State.Kind,
		Network:            op.State.Network,
		OriginNetwork:      op.OriginNetwork,
		DestinationNetwork: op.DestinationNetwork,
		TxHash:             op.State.TxHash,
		BlockHeight:        canon.Height,
		BlockHash:          canon.Hash,
		Amount:             op.Amount,
		ObservedAt:         op.State.Timestamp,
	}
}
