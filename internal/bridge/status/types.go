//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
package status

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

type (
	Snapshots interface {
		Snapshots() []model.LedgerSnapshot
	}

	Operations interface {
		Count() uint64
		Recent(n int) ([]model.Operation, error)
	}

	Cache interface {
		Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	}

	Metrics interface {
		Observe(err error, started time.Time)
	}
)
