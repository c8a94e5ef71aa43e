package ethereum

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/endpoint"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/safe"
)

// Source implements chain.Source for an EVM network.
type Source struct {
	network   model.NetworkID
	endpoints *endpoint.Manager[Client]
}

// NewSource creates a Source that fetches blocks of network through endpoints.
func NewSource(network model.NetworkID, endpoints *endpoint.Manager[Client]) *Source {
	return &Source{network: network, endpoints: endpoints}
}

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

// FetchBlock retrieves the header and transaction list at height, then the
// receipts of those transactions.
func (s *Source) FetchBlock(ctx context.Context, height uint64) (*model.Block, error) {
	var (
		header *types.Header
		hashes []common.Hash
	)
	err := s.endpoints.Call(ctx, "block_by_number", func(ctx context.Context, c Client) error {
		h, txs, err := c.BlockByHeight(ctx, height)
		if err != nil {
			return err
		}
		header, hashes = h, txs
		return nil
	})
	if err != nil {
		return nil, err
	}

	var receipts []*types.Receipt
	err = s.endpoints.Call(ctx, "receipts_by_hash", func(ctx context.Context, c Client) error {
		r, err := c.Receipts(ctx, hashes)
		if err != nil {
			return err
		}
		receipts = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return BuildBlock(s.network, header, hashes, receipts)
}

// BuildBlock encodes a header and its receipts into a ledger record. Every
// receipt is kept whole since the receipts root is rebuilt from the evidence.
func BuildBlock(network model.NetworkID, header *types.Header, hashes []common.Hash, receipts []*types.Receipt) (*model.Block, error) {
	if header == nil || header.Number == nil {
		return nil, fmt.Errorf("block without header")
	}
	height := header.Number.Uint64()
	if len(receipts) != len(hashes) {
		return nil, fmt.Errorf("block %d: %d receipts for %d transactions", height, len(receipts), len(hashes))
	}

	raw, err := rlp.EncodeToBytes(header)
	if err != nil {
		return nil, fmt.Errorf("encode header %d: %w", height, err)
	}
	ts, err := safe.Int64(header.Time)
	if err != nil {
		return nil, fmt.Errorf("header %d time: %w", height, err)
	}

	evidence := make([][]byte, 0, len(receipts))
	txHashes := make([]string, 0, len(hashes))
	for i, r := range receipts {
		if r == nil {
			return nil, fmt.Errorf("block %d: missing receipt for %s", height, hashes[i])
		}
		if r.TxHash != (common.Hash{}) && r.TxHash != hashes[i] {
			return nil, fmt.Errorf("block %d: receipt %d belongs to %s, want %s", height, i, r.TxHash, hashes[i])
		}
		enc, err := r.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("encode receipt %s: %w", hashes[i], err)
		}
		evidence = append(evidence, enc)
		txHashes = append(txHashes, hashes[i].Hex())
	}

	return &model.Block{
		Network:    network,
		Height:     height,
		Hash:       header.Hash().Hex(),
		ParentHash: header.ParentHash.Hex(),
		Timestamp:  time.Unix(ts, 0).UTC(),
		Header:     raw,
		Evidence:   evidence,
		TxHashes:   txHashes,
	}, nil
}
