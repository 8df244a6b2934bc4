package events

import (
	"context"
	"time"

	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/pkg/observability"
	"github.com/kevin07696/order-service/pkg/resilience"
	"go.uber.org/zap"
)

// RelayConfig configures the outbox relay
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// Relay publishes pending outbox records in insertion order and marks them sent.
// Delivery is at least once: a crash between publish and mark resends the record.
type Relay struct {
	db        ports.DBPort
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	backoff   resilience.BackoffStrategy
	logger    *zap.Logger
	cfg       RelayConfig
}

// NewRelay creates an outbox relay
func NewRelay(db ports.DBPort, outbox ports.OutboxRepository, publisher ports.EventPublisher, cfg RelayConfig, logger *zap.Logger) *Relay {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Relay{
		db:        db,
		outbox:    outbox,
		publisher: publisher,
		backoff:   resilience.RelayBackoff(),
		logger:    logger,
		cfg:       cfg,
	}
}

// Run polls until ctx is cancelled
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("Outbox relay started",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("batch_size", r.cfg.BatchSize))

	failures := 0
	for {
		wait := r.cfg.PollInterval
		if _, err := r.RelayOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			wait = r.backoff.NextDelay(failures)
			failures++
			r.logger.Warn("Outbox relay failed, backing off",
				zap.Error(err),
				zap.Int("consecutive_failures", failures),
				zap.Duration("retry_in", wait))
		} else {
			failures = 0
		}
		if err := resilience.Sleep(ctx, wait); err != nil {
			break
		}
	}
	r.logger.Info("Outbox relay stopped")
}

// RelayOnce publishes one batch and returns how many records were sent.
// It stops at the first publish failure so records keep their order per key.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	pending, err := r.outbox.FetchPending(ctx, r.db.GetDB(), r.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, rec := range pending {
		if err := r.publisher.Publish(ctx, rec.Topic, rec.Key, rec.Payload); err != nil {
			observability.RecordOutboxPublished("error")
			return sent, err
		}
		if err := r.outbox.MarkSent(ctx, r.db.GetDB(), rec.ID); err != nil {
			return sent, err
		}
		observability.RecordOutboxPublished("success")
		sent++
	}
	if sent > 0 {
		r.logger.Debug("Relayed outbox events", zap.Int("count", sent))
	}
	return sent, nil
}
