// Package reconciliation applies gateway payment observations to orders.
//
// Every observation is decided against the order row read under FOR UPDATE
// and written with an update conditioned on the payment status that was read,
// so concurrent polls and duplicate webhook deliveries produce at most one
// transition and one log entry.
package reconciliation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/internal/services/events"
	"github.com/kevin07696/order-service/pkg/observability"
	"github.com/kevin07696/order-service/pkg/resilience"
	"go.uber.org/zap"
)

// Config controls matching and conflict handling
type Config struct {
	// AmountFallback enables matching an unreferenced observation to the
	// newest order in status new with the same total.
	AmountFallback  bool
	MaxAttempts     int
	ConflictBackoff time.Duration
}

// Engine is the reconciliation engine
type Engine struct {
	db       ports.DBPort
	orders   ports.OrderRepository
	recorder *events.Recorder
	backoff  resilience.BackoffStrategy
	logger   *zap.Logger
	cfg      Config
}

// NewEngine creates a reconciliation engine
func NewEngine(db ports.DBPort, orders ports.OrderRepository, recorder *events.Recorder, cfg Config, logger *zap.Logger) *Engine {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 3
	}
	return &Engine{
		db:       db,
		orders:   orders,
		recorder: recorder,
		backoff:  resilience.ConflictBackoff(cfg.ConflictBackoff),
		logger:   logger,
		cfg:      cfg,
	}
}

// Reconcile applies obs to the order with the given ID. A deleted order yields
// OutcomeNotFound rather than an error.
func (e *Engine) Reconcile(ctx context.Context, orderID int64, obs *domain.Observation) (*domain.ReconciliationResult, error) {
	if obs == nil || obs.Status == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "observation status is required")
	}

	var (
		result *domain.ReconciliationResult
		err    error
	)
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		result, err = e.reconcileOnce(ctx, orderID, obs)
		if !errors.Is(err, domain.ErrConflictRetryable) {
			break
		}
		e.logger.Debug("Reconciliation lost a race, retrying",
			zap.Int64("order_id", orderID),
			zap.Int("attempt", attempt+1))
		if sleepErr := resilience.Sleep(ctx, e.backoff.NextDelay(attempt)); sleepErr != nil {
			return nil, sleepErr
		}
	}
	if err != nil {
		return nil, err
	}

	observability.RecordReconciliation(string(obs.Source), string(result.Outcome), result.Reason)
	if result.Changed() {
		e.logger.Info("Order reconciled",
			zap.Int64("order_id", orderID),
			zap.String("code", result.Order.Code),
			zap.String("source", string(obs.Source)),
			zap.String("previous_status", string(result.PreviousStatus)),
			zap.String("status", string(result.Order.Status)),
			zap.String("payment_status", string(result.Order.PaymentStatus)))
	}
	return result, nil
}

func (e *Engine) reconcileOnce(ctx context.Context, orderID int64, obs *domain.Observation) (*domain.ReconciliationResult, error) {
	var result *domain.ReconciliationResult

	err := e.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		o, err := e.orders.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			if domain.IsNotFoundError(err) {
				result = &domain.ReconciliationResult{Outcome: domain.OutcomeNotFound}
				return nil
			}
			return fmt.Errorf("lock order %d: %w", orderID, err)
		}

		prev := o.Status
		d := domain.Decide(o, obs)
		if !d.Apply {
			// an approved order keeps the payload that approved it
			if d.Reason != domain.ReasonAlreadyApproved && !bytes.Equal(obs.RawData, o.GatewayRawData) {
				if err := e.orders.UpdateRawData(ctx, tx, o.ID, obs.RawData); err != nil {
					return err
				}
			}
			outcome := domain.OutcomeNoChange
			if d.Reason == domain.ReasonNotFinal {
				outcome = domain.OutcomeSkipped
			}
			result = &domain.ReconciliationResult{Order: o, Outcome: outcome, Reason: d.Reason, PreviousStatus: prev}
			return nil
		}

		update := ports.PaymentStateUpdate{
			OrderID:               o.ID,
			Status:                d.NewStatus,
			PaymentStatus:         d.NewPaymentStatus,
			ExpectedPaymentStatus: o.PaymentStatus,
			RawData:               obs.RawData,
		}
		if d.BackfillCharge {
			chargeID := obs.ChargeID
			update.ChargeID = &chargeID
		}
		ok, err := e.orders.UpdatePaymentState(ctx, tx, update)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflictRetryable
		}

		o.Status = d.NewStatus
		o.PaymentStatus = d.NewPaymentStatus
		if update.ChargeID != nil {
			o.GatewayChargeID = update.ChargeID
		}
		if len(obs.RawData) > 0 {
			o.GatewayRawData = obs.RawData
		}
		if _, err := e.recorder.Transition(ctx, tx, o, prev, string(obs.Source), d.Note); err != nil {
			return err
		}
		result = &domain.ReconciliationResult{Order: o, Outcome: domain.OutcomeApplied, PreviousStatus: prev}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReconcileUnresolved matches obs to an order and reconciles it. Observations
// that match no order are reported as skipped, never as errors.
func (e *Engine) ReconcileUnresolved(ctx context.Context, obs *domain.Observation) (*domain.ReconciliationResult, error) {
	o, matchedBy, err := e.Match(ctx, obs)
	if err != nil {
		return nil, err
	}
	if o == nil {
		e.logger.Warn("Payment observation matched no order",
			zap.String("source", string(obs.Source)),
			zap.String("charge_id", obs.ChargeID),
			zap.String("external_reference", obs.ExternalReference),
			zap.String("status", string(obs.Status)))
		observability.RecordReconciliation(string(obs.Source), string(domain.OutcomeSkipped), domain.ReasonUnmatched)
		return &domain.ReconciliationResult{Outcome: domain.OutcomeSkipped, Reason: domain.ReasonUnmatched}, nil
	}

	e.logger.Debug("Payment observation matched",
		zap.String("code", o.Code),
		zap.String("matched_by", matchedBy))
	return e.Reconcile(ctx, o.ID, obs)
}

// Match finds the order an observation belongs to: by charge id, then by
// external reference equal to the order code, then (if enabled) by amount.
// It returns a nil order when nothing matches.
func (e *Engine) Match(ctx context.Context, obs *domain.Observation) (*domain.Order, string, error) {
	db := e.db.GetDB()

	if obs.ChargeID != "" {
		o, err := e.orders.GetByChargeID(ctx, db, obs.ChargeID)
		if err == nil {
			return o, "charge_id", nil
		}
		if !domain.IsNotFoundError(err) {
			return nil, "", err
		}
	}

	if obs.ExternalReference != "" {
		o, err := e.orders.GetByCode(ctx, db, obs.ExternalReference)
		if err == nil {
			return o, "external_reference", nil
		}
		if !domain.IsNotFoundError(err) {
			return nil, "", err
		}
	}

	if e.cfg.AmountFallback && obs.Amount != nil && obs.Amount.IsPositive() {
		o, err := e.orders.FindLatestNewByTotal(ctx, db, *obs.Amount)
		if err == nil {
			e.logger.Warn("Payment observation matched by amount only",
				zap.String("code", o.Code),
				zap.String("amount", obs.Amount.StringFixed(2)),
				zap.String("charge_id", obs.ChargeID))
			return o, "amount", nil
		}
		if !domain.IsNotFoundError(err) {
			return nil, "", err
		}
	}

	return nil, "", nil
}
