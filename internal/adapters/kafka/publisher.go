// Package kafka publishes outbox events to Kafka.
package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ErrDisabled is returned when no brokers are configured
var ErrDisabled = errors.New("kafka disabled")

var _ ports.EventPublisher = (*Publisher)(nil)

// messageWriter is the part of kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes keyed messages. Keys are order codes so every event of an
// order lands on the same partition and keeps its order.
type Publisher struct {
	writer messageWriter
	logger *zap.Logger
	now    func() time.Time
}

// ParseBrokers splits a comma separated broker list, dropping blanks
func ParseBrokers(csv string) []string {
	var brokers []string
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewPublisher creates a publisher for brokers. The topic travels on each message.
func NewPublisher(brokers []string, logger *zap.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, ErrDisabled
	}
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}, logger), nil
}

func newPublisher(w messageWriter, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer: w,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Publish implements ports.EventPublisher
func (p *Publisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Time:  p.now(),
	})
	if err != nil {
		p.logger.Warn("Kafka publish failed",
			zap.String("topic", topic),
			zap.String("key", key),
			zap.Error(err))
		return err
	}
	return nil
}

// Close flushes pending writes
func (p *Publisher) Close() error {
	return p.writer.Close()
}
