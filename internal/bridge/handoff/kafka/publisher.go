// Package kafka publishes handed off operations to Kafka topics.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/handoff"
	"github.com/goodnatureofminers/bridge-sentinel/internal/bridge/model"
)

const defaultTopicPrefix = "bridge-sentinel"

type Config struct {
	Brokers     []string
	TopicPrefix string
}

// Publisher writes one message per operation, keyed by operation id, to
// <prefix>-executable and <prefix>-cancellable.
type Publisher struct {
	writer  Writer
	prefix  string
	metrics Metrics
}

// NewPublisher creates a Publisher backed by a kafka-go writer.
func NewPublisher(cfg Config, metrics Metrics) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 100 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
	}
	return newPublisher(writer, cfg.TopicPrefix, metrics), nil
}

func newPublisher(writer Writer, prefix string, metrics Metrics) *Publisher {
	if strings.TrimSpace(prefix) == "" {
		prefix = defaultTopicPrefix
	}
	return &Publisher{writer: writer, prefix: prefix, metrics: metrics}
}

func (p *Publisher) Executable(ctx context.Context, ops []model.Operation) error {
	return p.publish(ctx, handoff.StreamExecutable, ops)
}

func (p *Publisher) Cancellable(ctx context.Context, ops []model.Operation) error {
	return p.publish(ctx, handoff.StreamCancellable, ops)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func (p *Publisher) publish(ctx context.Context, stream handoff.Stream, ops []model.Operation) (err error) {
	if len(ops) == 0 {
		return nil
	}
	started := time.Now()
	defer func() {
		p.metrics.Observe(string(stream), err, len(ops), started)
	}()

	topic := p.Topic(stream)
	messages := make([]kafka.Message, 0, len(ops))
	for _, op := range ops {
		payload, err := json.Marshal(handoff.NewMessage(stream, op))
		if err != nil {
			return fmt.Errorf("encode operation %s: %w", op.ID, err)
		}
		messages = append(messages, kafka.Message{
			Topic: topic,
			Key:   []byte(op.ID),
			Value: payload,
		})
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(messages), topic, err)
	}
	return nil
}

// Topic returns the topic of stream.
func (p *Publisher) Topic(stream handoff.Stream) string {
	return fmt.Sprintf("%s-%s", p.prefix, stream)
}
