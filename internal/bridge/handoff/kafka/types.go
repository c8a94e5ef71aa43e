//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE
package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

type (
	Writer interface {
		WriteMessages(ctx context.Context, msgs ...kafka.Message) error
		Close() error
	}

	Metrics interface {
		Observe(stream string, err error, messages int, started time.Time)
	}
)
