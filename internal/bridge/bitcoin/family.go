// Package bitcoin implements the UTXO chain family on top of btcd.
package bitcoin

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/safe"
)

// Family validates bitcoin headers and transaction evidence and turns payments
// to the deposit address into deposit logs.
type Family struct {
	params         *chaincfg.Params
	depositAddress string
	metrics        DepositMetrics
	logger         *zap.Logger
}

// NewFamily creates a Family for params watching depositAddress. Payments with
// a malformed destination payload are skipped and reported to metrics.
func NewFamily(params *chaincfg.Params, depositAddress string, metrics DepositMetrics, logger *zap.Logger) (*Family, error) {
	if metrics == nil {
		return nil, errors.New("deposit metrics is required")
	}
	if depositAddress != "" {
		addr, err := btcutil.DecodeAddress(depositAddress, params)
		if err != nil {
			return nil, fmt.Errorf("decode deposit address: %w", err)
		}
		if !addr.IsForNet(params) {
			return nil, fmt.Errorf("deposit address %s is not for %s", depositAddress, params.Name)
		}
		depositAddress = addr.EncodeAddress()
	}
	return &Family{
		params:         params,
		depositAddress: depositAddress,
		metrics:        metrics,
		logger:         logger.Named("bitcoin_family"),
	}, nil
}

// DepositAddress returns the normalized deposit address logs are attributed to.
func (f *Family) DepositAddress() string {
	return f.depositAddress
}

func (f *Family) Name() model.Family {
	return model.UTXO
}

// DecodeHeader decodes an 80 byte serialized header. Bitcoin headers carry no
// height so HeightKnown is false.
func (f *Family) DecodeHeader(raw []byte) (model.Header, error) {
	h, err := decodeHeader(raw)
	if err != nil {
		return model.Header{}, err
	}
	return model.Header{
		Hash:          h.BlockHash().String(),
		ParentHash:    h.PrevBlock.String(),
		Timestamp:     h.Timestamp.UTC(),
		InclusionRoot: h.MerkleRoot.String(),
	}, nil
}

// ValidateProof checks that the header hash meets the target encoded in its
// bits and that the target does not exceed the network proof of work limit.
func (f *Family) ValidateProof(raw []byte) error {
	h, err := decodeHeader(raw)
	if err != nil {
		return err
	}
	target := blockchain.CompactToBig(h.Bits)
	if target.Sign() <= 0 {
		return fmt.Errorf("target %064x is not positive", target)
	}
	if target.Cmp(f.params.PowLimit) > 0 {
		return fmt.Errorf("target %064x above proof of work limit %064x", target, f.params.PowLimit)
	}
	hash := h.BlockHash()
	if blockchain.HashToBig(&hash).Cmp(target) > 0 {
		return fmt.Errorf("block hash %s above target %064x", hash, target)
	}
	return nil
}

// ComputeInclusionRoot returns the merkle root of the serialized transactions.
func (f *Family) ComputeInclusionRoot(evidence [][]byte) (string, error) {
	if len(evidence) == 0 {
		return "", errors.New("block without transactions")
	}
	txs := make([]*btcutil.Tx, 0, len(evidence))
	for i, raw := range evidence {
		tx, err := decodeTx(raw)
		if err != nil {
			return "", fmt.Errorf("tx %d: %w", i, err)
		}
		txs = append(txs, btcutil.NewTx(tx))
	}
	root := blockchain.CalcMerkleRoot(txs, false)
	return root.String(), nil
}

// Logs returns one deposit log per transaction paying the deposit address and
// carrying a well formed destination in an OP_RETURN output. Anyone can pay the
// deposit address, so a payment with a malformed destination is skipped rather
// than failing the block.
func (f *Family) Logs(b *model.Block) ([]model.Log, error) {
	if f.depositAddress == "" {
		return nil, nil
	}
	var logs []model.Log
	for i, raw := range b.Evidence {
		tx, err := decodeTx(raw)
		if err != nil {
			return nil, fmt.Errorf("tx %d: %w", i, err)
		}
		amount, payload := f.scanOutputs(tx)
		if amount == 0 || payload == nil {
			continue
		}
		if reason := checkDepositPayload(payload); reason != "" {
			f.metrics.ObserveSkipped(reason)
			f.logger.Warn("deposit skipped",
				zap.Uint64("height", b.Height),
				zap.String("tx", tx.TxHash().String()),
				zap.Uint64("amount", amount),
				zap.String("reason", reason),
			)
			continue
		}
		data := make([]byte, 8, 8+len(payload))
		binary.BigEndian.PutUint64(data, amount)
		data = append(data, payload...)

		index, err := logIndex(i)
		if err != nil {
			return nil, err
		}
		logs = append(logs, model.Log{
			Address: f.depositAddress,
			Topics:  []string{DepositTopic},
			Data:    data,
			TxHash:  tx.TxHash().String(),
			Index:   index,
		})
	}
	return logs, nil
}

func (f *Family) scanOutputs(tx *wire.MsgTx) (amount uint64, payload []byte) {
	for _, out := range tx.TxOut {
		class, addrs, _, err := txscript.ExtractPkScriptAddrs(out.PkScript, f.params)
		if err != nil {
			continue
		}
		if class == txscript.NullDataTy {
			pushes, err := txscript.PushedData(out.PkScript)
			if err == nil && len(pushes) > 0 && payload == nil {
				payload = bytes.Join(pushes, nil)
			}
			continue
		}
		value, err := safe.Uint64(out.Value)
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if addr.EncodeAddress() == f.depositAddress {
				amount += value
			}
		}
	}
	return amount, payload
}

func decodeHeader(raw []byte) (*wire.BlockHeader, error) {
	if len(raw) != wire.MaxBlockHeaderPayload {
		return nil, fmt.Errorf("header is %d bytes, want %d", len(raw), wire.MaxBlockHeaderPayload)
	}
	var h wire.BlockHeader
	if err := h.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("deserialize header: %w", err)
	}
	return &h, nil
}

func decodeTx(raw []byte) (*wire.MsgTx, error) {
	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("deserialize tx: %w", err)
	}
	return &tx, nil
}
