package bitcoin

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/extractor"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/pkg/safe"
)

// DepositTopic tags logs synthesized from deposit transactions.
var DepositTopic = crypto.Keccak256Hash([]byte("Deposit(uint64,bytes4,string)")).Hex()

var errShortDeposit = errors.New("deposit payload too short")

const (
	skipShortPayload   = "short_payload"
	skipInvalidAccount = "invalid_account"
)

// checkDepositPayload returns why payload cannot name a destination, or an
// empty string when it can.
func checkDepositPayload(payload []byte) string {
	if len(payload) < len(model.NetworkID{})+1 {
		return skipShortPayload
	}
	if !utf8.Valid(payload[len(model.NetworkID{}):]) {
		return skipInvalidAccount
	}
	return ""
}

// DepositSchema decodes deposit logs produced by Family.Logs. The OP_RETURN
// payload is a 4 byte destination network id followed by the destination account.
type DepositSchema struct{}

func (DepositSchema) Topics() []string {
	return []string{DepositTopic}
}

func (DepositSchema) Decode(b *model.Block, log model.Log) (model.Operation, error) {
	if len(log.Data) < 8+4+1 {
		return model.Operation{}, errShortDeposit
	}
	amount := binary.BigEndian.Uint64(log.Data[:8])
	var destination model.NetworkID
	copy(destination[:], log.Data[8:12])
	account := log.Data[12:]
	if !utf8.Valid(account) {
		return model.Operation{}, fmt.Errorf("destination account is not valid utf-8")
	}

	op := model.Operation{
		OriginNetwork:      b.Network,
		DestinationNetwork: destination,
		OriginBlockHash:    b.Hash,
		OriginTxHash:       log.TxHash,
		Nonce:              new(big.Int).SetUint64(uint64(log.Index)),
		DestinationAccount: string(account),
		Amount:             new(big.Int).SetUint64(amount),
		State: model.State{
			Kind:      model.Witnessed,
			Network:   b.Network,
			TxHash:    log.TxHash,
			Timestamp: b.Timestamp,
		},
	}
	id, err := extractor.OperationID(op)
	if err != nil {
		return model.Operation{}, err
	}
	op.ID = id
	return op, nil
}

func logIndex(i int) (uint32, error) {
	index, err := safe.Uint32(i)
	if err != nil {
		return 0, fmt.Errorf("log index: %w", err)
	}
	return index, nil
}
