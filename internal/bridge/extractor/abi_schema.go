package extractor

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

const (
	userOperationEvent      = "UserOperation"
	operationQueuedEvent    = "OperationQueued"
	operationExecutedEvent  = "OperationExecuted"
	operationCancelledEvent = "OperationCancelled"
)

const operationInputs = `
	{"name":"nonce","type":"uint256","indexed":false},
	{"name":"originAccount","type":"string","indexed":false},
	{"name":"destinationAccount","type":"string","indexed":false},
	{"name":"destinationNetworkId","type":"bytes4","indexed":false},
	{"name":"underlyingAssetTokenAddress","type":"address","indexed":false},
	{"name":"assetAmount","type":"uint256","indexed":false},
	{"name":"userData","type":"bytes","indexed":false},
	{"name":"optionsMask","type":"bytes32","indexed":false}`

const protocolInputs = `
	{"name":"originBlockHash","type":"bytes32","indexed":false},
	{"name":"originTransactionHash","type":"bytes32","indexed":false},
	{"name":"originNetworkId","type":"bytes4","indexed":false},` + operationInputs

// HubABI is the event interface of the bridge hub contract.
const HubABI = `[
{"type":"event","name":"` + userOperationEvent + `","anonymous":false,"inputs":[` + operationInputs + `]},
{"type":"event","name":"` + operationQueuedEvent + `","anonymous":false,"inputs":[` + protocolInputs + `]},
{"type":"event","name":"` + operationExecutedEvent + `","anonymous":false,"inputs":[` + protocolInputs + `]},
{"type":"event","name":"` + operationCancelledEvent + `","anonymous":false,"inputs":[` + protocolInputs + `]}
]`

var errUnexpectedValue = errors.New("unexpected abi value")

// ABISchema decodes hub contract events. UserOperation marks a request
// witnessed on its origin network; the protocol events carry the full
// operation and mark its progress on the destination network.
type ABISchema struct {
	userSend abi.Event
	protocol map[common.Hash]protocolEvent
}

type protocolEvent struct {
	event abi.Event
	kind  model.StateKind
}

// NewABISchema parses HubABI.
func NewABISchema() (*ABISchema, error) {
	parsed, err := abi.JSON(strings.NewReader(HubABI))
	if err != nil {
		return nil, fmt.Errorf("parse hub abi: %w", err)
	}
	s := &ABISchema{
		userSend: parsed.Events[userOperationEvent],
		protocol: make(map[common.Hash]protocolEvent, 3),
	}
	for name, kind := range map[string]model.StateKind{
		operationQueuedEvent:    model.Enqueued,
		operationExecutedEvent:  model.Executed,
		operationCancelledEvent: model.Cancelled,
	} {
		ev := parsed.Events[name]
		s.protocol[ev.ID] = protocolEvent{event: ev, kind: kind}
	}
	return s, nil
}

// Topics returns the signature topics of every hub event.
func (s *ABISchema) Topics() []string {
	topics := []string{s.userSend.ID.Hex()}
	for id := range s.protocol {
		topics = append(topics, id.Hex())
	}
	return topics
}

// Topic returns the signature topic of the named event.
func (s *ABISchema) Topic(kind model.StateKind) string {
	if kind == model.Witnessed {
		return s.userSend.ID.Hex()
	}
	for id, ev := range s.protocol {
		if ev.kind == kind {
			return id.Hex()
		}
	}
	return ""
}

// Decode decodes log emitted in block b.
func (s *ABISchema) Decode(b *model.Block, log model.Log) (model.Operation, error) {
	if len(log.Topics) == 0 {
		return model.Operation{}, errors.New("log has no topics")
	}
	topic := common.HexToHash(log.Topics[0])

	var (
		op  model.Operation
		err error
	)
	switch {
	case topic == s.userSend.ID:
		op, err = s.decodeUserSend(b, log)
	default:
		ev, ok := s.protocol[topic]
		if !ok {
			return model.Operation{}, fmt.Errorf("unrecognized topic %s", log.Topics[0])
		}
		op, err = decodeProtocol(ev, log)
	}
	if err != nil {
		return model.Operation{}, err
	}

	op.State = model.State{Kind: op.State.Kind, Network: b.Network, TxHash: log.TxHash, Timestamp: b.Timestamp}
	if op.ID, err = OperationID(op); err != nil {
		return model.Operation{}, err
	}
	return op, nil
}

func (s *ABISchema) decodeUserSend(b *model.Block, log model.Log) (model.Operation, error) {
	values, err := s.userSend.Inputs.Unpack(log.Data)
	if err != nil {
		return model.Operation{}, fmt.Errorf("unpack %s: %w", userOperationEvent, err)
	}
	op := model.Operation{
		OriginNetwork:   b.Network,
		OriginBlockHash: b.Hash,
		OriginTxHash:    log.TxHash,
		State:           model.State{Kind: model.Witnessed},
	}
	if err := fillOperation(&op, values); err != nil {
		return model.Operation{}, fmt.Errorf("%s: %w", userOperationEvent, err)
	}
	return op, nil
}

func decodeProtocol(ev protocolEvent, log model.Log) (model.Operation, error) {
	values, err := ev.event.Inputs.Unpack(log.Data)
	if err != nil {
		return model.Operation{}, fmt.Errorf("unpack %s: %w", ev.event.Name, err)
	}
	if len(values) != 11 {
		return model.Operation{}, fmt.Errorf("%s: %w: %d values", ev.event.Name, errUnexpectedValue, len(values))
	}
	blockHash, ok1 := values[0].([32]byte)
	txHash, ok2 := values[1].([32]byte)
	origin, ok3 := values[2].([4]byte)
	if !ok1 || !ok2 || !ok3 {
		return model.Operation{}, fmt.Errorf("%s: %w: origin fields", ev.event.Name, errUnexpectedValue)
	}
	op := model.Operation{
		OriginNetwork:   origin,
		OriginBlockHash: common.Hash(blockHash).Hex(),
		OriginTxHash:    common.Hash(txHash).Hex(),
		State:           model.State{Kind: ev.kind},
	}
	if err := fillOperation(&op, values[3:]); err != nil {
		return model.Operation{}, fmt.Errorf("%s: %w", ev.event.Name, err)
	}
	return op, nil
}

// fillOperation copies the shared operation fields in operationInputs order.
func fillOperation(op *model.Operation, values []interface{}) error {
	if len(values) != 8 {
		return fmt.Errorf("%w: %d operation values", errUnexpectedValue, len(values))
	}
	nonce, ok1 := values[0].(*big.Int)
	originAccount, ok2 := values[1].(string)
	destinationAccount, ok3 := values[2].(string)
	destination, ok4 := values[3].([4]byte)
	asset, ok5 := values[4].(common.Address)
	amount, ok6 := values[5].(*big.Int)
	userData, ok7 := values[6].([]byte)
	mask, ok8 := values[7].([32]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 || !ok6 || !ok7 || !ok8 {
		return fmt.Errorf("%w: operation fields", errUnexpectedValue)
	}

	op.Nonce = nonce
	op.OriginAccount = originAccount
	op.DestinationAccount = destinationAccount
	op.DestinationNetwork = destination
	op.AssetAddress = asset.Hex()
	op.Amount = amount
	op.UserData = userData
	op.OptionsMask = common.Hash(mask).Hex()
	return nil
}
