package clickhouse

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

const insertOperationEventsQuery = `
INSERT INTO bridge_operation_events (
	operation_id,
	kind,
	network,
	origin_network,
	destination_network,
	tx_hash,
	block_height,
	block_hash,
	amount,
	observed_at
) VALUES`

// InsertOperationEvents stores operation state changes in ClickHouse.
func (r *Repository) InsertOperationEvents(ctx context.Context, events []model.OperationEvent) (err error) {
	start := time.Now()
	defer func() {
		r.metrics.Observe("insert_operation_events", err, start)
	}()

	if len(events) == 0 {
		return nil
	}

	batch, err := r.conn.PrepareBatch(ctx, insertOperationEventsQuery)
	if err != nil {
		return fmt.Errorf("prepare operation events batch: %w", err)
	}

	for _, e := range events {
		if err = batch.Append(
			e.OperationID,
			e.Kind.String(),
			e.Network.String(),
			e.OriginNetwork.String(),
			e.DestinationNetwork.String(),
			e.TxHash,
			e.BlockHeight,
			e.BlockHash,
			amountOf(e),
			e.ObservedAt.UTC(),
		); err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append operation event %s: %w", e.OperationID, err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("insert operation events: %w", err)
	}
	return nil
}

func amountOf(e model.OperationEvent) *big.Int {
	if e.Amount == nil {
		return new(big.Int)
	}
	return e.Amount
}
