package registry

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/safe"
)

type stateRecord struct {
	Kind      uint8
	Network   [4]byte
	TxHash    string
	Timestamp uint64
}

type operationRecord struct {
	Seq                uint64
	ID                 string
	OriginNetwork      [4]byte
	DestinationNetwork [4]byte
	OriginBlockHash    string
	OriginTxHash       string
	Nonce              *big.Int
	OriginAccount      string
	DestinationAccount string
	AssetAddress       string
	Amount             *big.Int
	UserData           []byte
	OptionsMask        string
	State              stateRecord
	History            []stateRecord
}

type entry struct {
	seq uint64
	op  model.Operation
}

func encodeEntry(e entry) ([]byte, error) {
	state, err := encodeState(e.op.State)
	if err != nil {
		return nil, err
	}
	history := make([]stateRecord, 0, len(e.op.History))
	for _, s := range e.op.History {
		rec, err := encodeState(s)
		if err != nil {
			return nil, err
		}
		history = append(history, rec)
	}
	return rlp.EncodeToBytes(&operationRecord{
		Seq:                e.seq,
		ID:                 e.op.ID,
		OriginNetwork:      e.op.OriginNetwork,
		DestinationNetwork: e.op.DestinationNetwork,
		OriginBlockHash:    e.op.OriginBlockHash,
		OriginTxHash:       e.op.OriginTxHash,
		Nonce:              orZero(e.op.Nonce),
		OriginAccount:      e.op.OriginAccount,
		DestinationAccount: e.op.DestinationAccount,
		AssetAddress:       e.op.AssetAddress,
		Amount:             orZero(e.op.Amount),
		UserData:           e.op.UserData,
		OptionsMask:        e.op.OptionsMask,
		State:              state,
		History:            history,
	})
}

func decodeEntry(raw []byte) (entry, error) {
	var rec operationRecord
	if err := rlp.DecodeBytes(raw, &rec); err != nil {
		return entry{}, fmt.Errorf("decode operation: %w", err)
	}
	state, err := decodeState(rec.State)
	if err != nil {
		return entry{}, err
	}
	var history []model.State
	for _, s := range rec.History {
		st, err := decodeState(s)
		if err != nil {
			return entry{}, err
		}
		history = append(history, st)
	}
	return entry{
		seq: rec.Seq,
		op: model.Operation{
			ID:                 rec.ID,
			OriginNetwork:      rec.OriginNetwork,
			DestinationNetwork: rec.DestinationNetwork,
			OriginBlockHash:    rec.OriginBlockHash,
			OriginTxHash:       rec.OriginTxHash,
			Nonce:              rec.Nonce,
			OriginAccount:      rec.OriginAccount,
			DestinationAccount: rec.DestinationAccount,
			AssetAddress:       rec.AssetAddress,
			Amount:             rec.Amount,
			UserData:           rec.UserData,
			OptionsMask:        rec.OptionsMask,
			State:              state,
			History:            history,
		},
	}, nil
}

func encodeState(s model.State) (stateRecord, error) {
	ts, err := safe.Uint64(s.Timestamp.Unix())
	if err != nil {
		return stateRecord{}, fmt.Errorf("encode %s state: %w", s.Kind, err)
	}
	return stateRecord{Kind: uint8(s.Kind), Network: s.Network, TxHash: s.TxHash, Timestamp: ts}, nil
}

func decodeState(s stateRecord) (model.State, error) {
	ts, err := safe.Int64(s.Timestamp)
	if err != nil {
		return model.State{}, fmt.Errorf("decode state: %w", err)
	}
	return model.State{
		Kind:      model.StateKind(s.Kind),
		Network:   s.Network,
		TxHash:    s.TxHash,
		Timestamp: time.Unix(ts, 0).UTC(),
	}, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
