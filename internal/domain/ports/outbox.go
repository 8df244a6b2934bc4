package ports

import (
	"context"
	"encoding/json"
	"time"
)

// OutboxRecord is an event waiting to be relayed to the broker
type OutboxRecord struct {
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at"`
	EventID   string          `json:"event_id"`
	Topic     string          `json:"topic"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	ID        int64           `json:"id"`
}

// OutboxRepository stores events in the same transaction as the state they describe
type OutboxRepository interface {
	Insert(ctx context.Context, tx DBTX, record *OutboxRecord) error
	FetchPending(ctx context.Context, db DBTX, limit int) ([]*OutboxRecord, error)
	MarkSent(ctx context.Context, db DBTX, id int64) error
}

// EventPublisher delivers a keyed message to a topic
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, payload []byte) error
}
