package processor

import (
	"context"
	"time"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/ledger"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/registry"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Ledger interface {
		Initialized() bool
		InitWith(b *model.Block, precommit ledger.Precommit) error
		InsertWith(b *model.Block, precommit ledger.Precommit) (ledger.InsertResult, error)
		Latest() (*model.Block, bool)
		Snapshot() model.LedgerSnapshot
	}
	Extractor interface {
		Extract(canon *model.Block) ([]model.Operation, error)
	}
	// Registry holds operation state plus the outbox of operations awaiting handoff.
	Registry interface {
		Apply(ops []model.Operation) (registry.ApplyResult, error)
		Pending(limit int) ([]model.Operation, error)
		Acknowledge(ids []string) error
	}
	// Broadcaster receives operations awaiting destination action.
	Broadcaster interface {
		Executable(ctx context.Context, ops []model.Operation) error
	}
	// Archive receives every recorded or transitioned operation state.
	Archive interface {
		Add(ctx context.Context, event model.OperationEvent) error
	}
	Metrics interface {
		ObserveBatch(network string, err error, blocks int, started time.Time)
		ObserveBlock(network string, kind string, started time.Time)
		ObserveOperations(network string, recorded, transitioned, ignored int)
		ObservePointers(snapshot model.LedgerSnapshot)
	}
)

// Lane binds the per-network components driven by the processor.
type Lane struct {
	Network   model.NetworkID
	Name      string
	Ledger    Ledger
	Extractor Extractor
}
