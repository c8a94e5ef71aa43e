// Package ethereum implements the account chain family on top of go-ethereum.
package ethereum

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/safe"
)

// Family checks RLP encoded headers against the receipts trie and exposes
// the receipt logs.
type Family struct{}

// NewFamily creates the account family. It holds no state.
func NewFamily() *Family {
	return &Family{}
}

func (f *Family) Name() model.Family {
	return model.EVM
}

func (f *Family) DecodeHeader(raw []byte) (model.Header, error) {
	h, err := decodeHeader(raw)
	if err != nil {
		return model.Header{}, err
	}
	ts, err := safe.Int64(h.Time)
	if err != nil {
		return model.Header{}, fmt.Errorf("header time: %w", err)
	}
	return model.Header{
		Hash:          h.Hash().Hex(),
		ParentHash:    h.ParentHash.Hex(),
		Height:        h.Number.Uint64(),
		HeightKnown:   true,
		Timestamp:     time.Unix(ts, 0).UTC(),
		InclusionRoot: h.ReceiptHash.Hex(),
	}, nil
}

// ValidateProof only checks that the header decodes: account chains carry no
// proof of work and finality is left to the confirmation window.
func (f *Family) ValidateProof(raw []byte) error {
	_, err := decodeHeader(raw)
	return err
}

// ComputeInclusionRoot returns the receipts trie root of consensus encoded receipts.
func (f *Family) ComputeInclusionRoot(evidence [][]byte) (string, error) {
	receipts, err := decodeReceipts(evidence)
	if err != nil {
		return "", err
	}
	return types.DeriveSha(receipts, trie.NewStackTrie(nil)).Hex(), nil
}

// Logs flattens receipt logs in block order. Log indexes are block wide.
func (f *Family) Logs(b *model.Block) ([]model.Log, error) {
	if len(b.Evidence) != len(b.TxHashes) {
		return nil, fmt.Errorf("%d receipts for %d transactions", len(b.Evidence), len(b.TxHashes))
	}
	receipts, err := decodeReceipts(b.Evidence)
	if err != nil {
		return nil, err
	}

	var (
		logs  []model.Log
		index uint32
	)
	for i, r := range receipts {
		for _, l := range r.Logs {
			topics := make([]string, 0, len(l.Topics))
			for _, t := range l.Topics {
				topics = append(topics, t.Hex())
			}
			logs = append(logs, model.Log{
				Address: l.Address.Hex(),
				Topics:  topics,
				Data:    l.Data,
				TxHash:  b.TxHashes[i],
				Index:   index,
			})
			index++
		}
	}
	return logs, nil
}

func decodeHeader(raw []byte) (*types.Header, error) {
	var h types.Header
	if err := rlp.DecodeBytes(raw, &h); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if h.Number == nil {
		return nil, errors.New("header without number")
	}
	return &h, nil
}

func decodeReceipts(evidence [][]byte) (types.Receipts, error) {
	receipts := make(types.Receipts, 0, len(evidence))
	for i, raw := range evidence {
		r := new(types.Receipt)
		if err := r.UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("receipt %d: %w", i, err)
		}
		receipts = append(receipts, r)
	}
	return receipts, nil
}
