// Package handoff passes operations to the component that builds and signs
// the destination transactions.
package handoff

import (
	"context"
	"errors"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

// Broadcaster receives operations by value.
type Broadcaster interface {
	// Executable receives newly witnessed operations awaiting destination action.
	Executable(ctx context.Context, ops []model.Operation) error
	// Cancellable receives enqueued operations eligible for cancellation.
	Cancellable(ctx context.Context, ops []model.Operation) error
}

// Stream names the two outputs of the relay.
type Stream string

const (
	StreamExecutable  Stream = "executable"
	StreamCancellable Stream = "cancellable"
)

// Message is the wire form of a handed off operation.
type Message struct {
	Stream             Stream    `json:"stream,omitempty"`
	ID                 string    `json:"id"`
	OriginNetwork      string    `json:"origin_network"`
	DestinationNetwork string    `json:"destination_network"`
	OriginBlockHash    string    `json:"origin_block_hash"`
	OriginTxHash       string    `json:"origin_tx_hash"`
	Nonce              string    `json:"nonce"`
	OriginAccount      string    `json:"origin_account,omitempty"`
	DestinationAccount string    `json:"destination_account"`
	AssetAddress       string    `json:"asset_address,omitempty"`
	Amount             string    `json:"amount"`
	UserData           []byte    `json:"user_data,omitempty"`
	OptionsMask        string    `json:"options_mask,omitempty"`
	State              string    `json:"state"`
	StateNetwork       string    `json:"state_network"`
	StateTxHash        string    `json:"state_tx_hash"`
	StateTimestamp     time.Time `json:"state_timestamp"`
}

// NewMessage converts op for stream.
func NewMessage(stream Stream, op model.Operation) Message {
	return Message{
		Stream:             stream,
		ID:                 op.ID,
		OriginNetwork:      op.OriginNetwork.String(),
		DestinationNetwork: op.DestinationNetwork.String(),
		OriginBlockHash:    op.OriginBlockHash,
		OriginTxHash:       op.OriginTxHash,
		Nonce:              decimal(op.Nonce),
		OriginAccount:      op.OriginAccount,
		DestinationAccount: op.DestinationAccount,
		AssetAddress:       op.AssetAddress,
		Amount:             decimal(op.Amount),
		UserData:           op.UserData,
		OptionsMask:        op.OptionsMask,
		State:              op.State.Kind.String(),
		StateNetwork:       op.State.Network.String(),
		StateTxHash:        op.State.TxHash,
		StateTimestamp:     op.State.Timestamp,
	}
}

func decimal(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// LogBroadcaster writes every operation to the log. It is the sink used when
// no broker is configured.
type LogBroadcaster struct {
	logger *zap.Logger
}

func NewLogBroadcaster(logger *zap.Logger) *LogBroadcaster {
	return &LogBroadcaster{logger: logger.Named("handoff")}
}

func (b *LogBroadcaster) Executable(_ context.Context, ops []model.Operation) error {
	b.log(StreamExecutable, ops)
	return nil
}

func (b *LogBroadcaster) Cancellable(_ context.Context, ops []model.Operation) error {
	b.log(StreamCancellable, ops)
	return nil
}

func (b *LogBroadcaster) log(stream Stream, ops []model.Operation) {
	for _, op := range ops {
		m := NewMessage(stream, op)
		b.logger.Info("operation handed off",
			zap.String("stream", string(stream)),
			zap.String("operation", m.ID),
			zap.String("origin", m.OriginNetwork),
			zap.String("destination", m.DestinationNetwork),
			zap.String("amount", m.Amount),
			zap.String("state", m.State),
		)
	}
}

// Fanout forwards to every broadcaster and joins their errors.
type Fanout []Broadcaster

func (f Fanout) Executable(ctx context.Context, ops []model.Operation) error {
	var errs []error
	for _, b := range f {
		errs = append(errs, b.Executable(ctx, ops))
	}
	return errors.Join(errs...)
}

func (f Fanout) Cancellable(ctx context.Context, ops []model.Operation) error {
	var errs []error
	for _, b := range f {
		errs = append(errs, b.Cancellable(ctx, ops))
	}
	return errors.Join(errs...)
}
