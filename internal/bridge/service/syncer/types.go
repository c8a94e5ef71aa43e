package syncer

import (
	"context"
	"time"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Source interface {
		LatestHeight(ctx context.Context) (uint64, error)
		FetchBlock(ctx context.Context, height uint64) (*model.Block, error)
	}
	Ledger interface {
		Initialized() bool
		Latest() (*model.Block, bool)
	}
	Processor interface {
		Submit(ctx context.Context, batch model.Batch) error
	}
	Metrics interface {
		ObserveFetchLatest(err error, started time.Time)
		ObserveFetchBlocks(err error, blocks int, started time.Time)
		ObserveSubmit(err error, blocks int, started time.Time)
		SetHeights(remote, local uint64)
	}
)
