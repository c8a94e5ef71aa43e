package bitcoin

import (
	"bytes"
	"context"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/endpoint"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

// Source implements chain.Source for a bitcoin network.
type Source struct {
	network   model.NetworkID
	endpoints *endpoint.Manager[Client]
}

// NewSource creates a Source fetching through endpoints.
func NewSource(network model.NetworkID, endpoints *endpoint.Manager[Client]) *Source {
	return &Source{network: network, endpoints: endpoints}
}

// LatestHeight returns the latest block height from the node.
func (s *Source) LatestHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := s.endpoints.Call(ctx, "latest_block_number", func(ctx context.Context, c Client) error {
		h, err := c.LatestHeight(ctx)
		if err != nil {
			return err
		}
		height = h
		return nil
	})
	return height, err
}

// FetchBlock retrieves the block at height and assembles its ledger record.
func (s *Source) FetchBlock(ctx context.Context, height uint64) (*model.Block, error) {
	var block *wire.MsgBlock
	err := s.endpoints.Call(ctx, "block_by_number", func(ctx context.Context, c Client) error {
		b, err := c.BlockByHeight(ctx, height)
		if err != nil {
			return err
		}
		block = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return BuildBlock(s.network, height, block)
}

// BuildBlock serializes a wire block into a ledger record.
func BuildBlock(network model.NetworkID, height uint64, block *wire.MsgBlock) (*model.Block, error) {
	var header bytes.Buffer
	if err := block.Header.Serialize(&header); err != nil {
		return nil, fmt.Errorf("serialize header at height %d: %w", height, err)
	}

	evidence := make([][]byte, 0, len(block.Transactions))
	hashes := make([]string, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		var buf bytes.Buffer
		buf.Grow(tx.SerializeSize())
		if err := tx.Serialize(&buf); err != nil {
			return nil, fmt.Errorf("serialize tx %s: %w", tx.TxHash(), err)
		}
		evidence = append(evidence, buf.Bytes())
		hashes = append(hashes, tx.TxHash().String())
	}

	return &model.Block{
		Network:    network,
		Height:     height,
		Hash:       block.Header.BlockHash().String(),
		ParentHash: block.Header.PrevBlock.String(),
		Timestamp:  block.Header.Timestamp.UTC(),
		Header:     header.Bytes(),
		Evidence:   evidence,
		TxHashes:   hashes,
	}, nil
}
