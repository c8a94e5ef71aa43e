package ledger

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/safe"
)

type blockRecord struct {
	Network    [4]byte
	Height     uint64
	Hash       string
	ParentHash string
	Timestamp  uint64
	Header     []byte
	Evidence   [][]byte
	TxHashes   []string
}

func encodeBlock(b *model.Block) ([]byte, error) {
	ts := b.Timestamp.Unix()
	if ts < 0 {
		return nil, fmt.Errorf("encode block %s: negative timestamp", b.Hash)
	}
	return rlp.EncodeToBytes(&blockRecord{
		Network:    b.Network,
		Height:     b.Height,
		Hash:       b.Hash,
		ParentHash: b.ParentHash,
		Timestamp:  uint64(ts),
		Header:     b.Header,
		Evidence:   b.Evidence,
		TxHashes:   b.TxHashes,
	})
}

func decodeBlock(raw []byte) (*model.Block, error) {
	var rec blockRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	ts, err := safe.Int64(rec.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("decode block %s: %w", rec.Hash, err)
	}
	return &model.Block{
		Network:    rec.Network,
		Height:     rec.Height,
		Hash:       rec.Hash,
		ParentHash: rec.ParentHash,
		Timestamp:  time.Unix(ts, 0).UTC(),
		Header:     rec.Header,
		Evidence:   rec.Evidence,
		TxHashes:   rec.TxHashes,
	}, nil
}
