package canceller

import (
	"context"
	"time"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Registry interface {
		GetCancellable(maxDelta time.Duration, latest model.LatestTimestamps) ([]model.Operation, error)
	}
	// Timestamps reports the latest block time of every synced network.
	Timestamps interface {
		LatestTimestamps() model.LatestTimestamps
	}
	Broadcaster interface {
		Cancellable(ctx context.Context, ops []model.Operation) error
	}
	Metrics interface {
		ObserveScan(err error, found int, started time.Time)
		ObserveEmitted(err error, emitted int)
	}
)
