// Package payment opens gateway charges and feeds gateway payment states
// (from polls, webhooks and synchronous charge results) to the
// reconciliation engine. It also runs refunds.
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/internal/services/events"
	svcports "github.com/kevin07696/order-service/internal/services/ports"
	"github.com/kevin07696/order-service/internal/services/reconciliation"
	"github.com/kevin07696/order-service/pkg/observability"
	"github.com/kevin07696/order-service/pkg/resilience"
	"github.com/kevin07696/order-service/pkg/timeutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ svcports.PaymentService = (*Service)(nil)

// Service implements svcports.PaymentService
type Service struct {
	db       ports.DBPort
	orders   ports.OrderRepository
	gateway  ports.PaymentGateway
	engine   *reconciliation.Engine
	recorder *events.Recorder
	timeouts *resilience.TimeoutConfig
	clock    timeutil.Clock
	loc      *time.Location
	logger   *zap.Logger
}

// NewService creates a new payment service. loc is the time zone boleto due
// dates are computed in.
func NewService(
	db ports.DBPort,
	orders ports.OrderRepository,
	gateway ports.PaymentGateway,
	engine *reconciliation.Engine,
	recorder *events.Recorder,
	timeouts *resilience.TimeoutConfig,
	loc *time.Location,
	logger *zap.Logger,
) *Service {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		db:       db,
		orders:   orders,
		gateway:  gateway,
		engine:   engine,
		recorder: recorder,
		timeouts: timeouts,
		clock:    timeutil.Now,
		loc:      loc,
		logger:   logger,
	}
}

// WithClock replaces the clock used for boleto due dates
func (s *Service) WithClock(clock timeutil.Clock) *Service {
	s.clock = clock
	return s
}

// CreateCharge opens a charge for the order's total. A synchronous approval
// or rejection from the provider is reconciled immediately.
func (s *Service) CreateCharge(ctx context.Context, req *svcports.CreateChargeRequest) (*svcports.ChargeResponse, error) {
	o, err := s.orders.GetByCode(ctx, s.db.GetDB(), req.Code)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationInvalidTransition, "order is in a terminal status").
			WithDetail("status", string(o.Status))
	}
	if o.IsPaid() || o.PaymentStatus == domain.PaymentStatusRefunded {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationInvalidTransition, "order payment is already settled").
			WithDetail("payment_status", string(o.PaymentStatus))
	}

	chargeReq := &ports.ChargeRequest{
		Amount:      o.Total,
		Customer:    o.Customer,
		Address:     o.Delivery,
		Method:      o.PaymentMethod,
		OrderCode:   o.Code,
		Description: chargeDescription(o),
	}
	if chargeReq.Customer.Name == "" {
		chargeReq.Customer.Name = o.Delivery.RecipientName
	}
	if chargeReq.Customer.Phone == "" {
		chargeReq.Customer.Phone = o.Delivery.RecipientPhone
	}
	switch {
	case o.PaymentMethod.IsBoleto():
		due := timeutil.AddDays(s.clock(), o.PaymentMethod.BoletoDueDays(), s.loc)
		chargeReq.DueDate = &due
	case o.PaymentMethod == domain.PaymentMethodCard:
		if strings.TrimSpace(req.CardToken) == "" {
			return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "card token is required").
				WithDetail("field", "card_token")
		}
		chargeReq.CardToken = req.CardToken
		chargeReq.Installments = req.Installments
		if chargeReq.Installments < 1 {
			chargeReq.Installments = 1
		}
	}

	ref, err := s.gateway.CreateCharge(ctx, chargeReq)
	if err != nil {
		s.logger.Error("Charge creation failed",
			zap.String("code", o.Code),
			zap.String("provider", s.gateway.Name()),
			zap.Error(err))
		return nil, err
	}

	recorded, err := s.recordCharge(ctx, o.ID, ref)
	if err != nil {
		// the provider charge exists; log enough to attach it by hand
		s.logger.Error("Charge created but not recorded",
			zap.String("code", o.Code),
			zap.String("charge_id", ref.ChargeID),
			zap.Error(err))
		return nil, err
	}
	o = recorded

	s.logger.Info("Charge created",
		zap.String("code", o.Code),
		zap.String("provider", s.gateway.Name()),
		zap.String("charge_id", ref.ChargeID),
		zap.String("status", string(ref.Status)))

	if ref.Status == domain.NormalizedApproved || ref.Status == domain.NormalizedRejected {
		res, err := s.engine.Reconcile(ctx, o.ID, &domain.Observation{
			Source:   domain.SourceCharge,
			Status:   ref.Status,
			ChargeID: ref.ChargeID,
			Detail:   ref.StatusDetail,
			RawData:  ref.RawData,
		})
		if err != nil {
			return nil, err
		}
		if res.Order != nil {
			o = res.Order
		}
	}

	return &svcports.ChargeResponse{
		Order:         o,
		ChargeID:      ref.ChargeID,
		Status:        string(ref.Status),
		PixCopyPaste:  ref.PixCopyPaste,
		QRCodeImage:   ref.QRCodeImage,
		BoletoURL:     ref.BoletoURL,
		BoletoBarcode: ref.BoletoBarcode,
	}, nil
}

// recordCharge stores ref as the order's active charge. The order is re-read
// under its row lock: a payment settled while the provider call was in flight
// keeps its charge reference and the new charge is reported as unrecorded.
func (s *Service) recordCharge(ctx context.Context, orderID int64, ref *ports.ChargeRef) (*domain.Order, error) {
	var recorded *domain.Order
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := s.orders.GetByIDForUpdate(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if locked.IsPaid() || locked.PaymentStatus == domain.PaymentStatusRefunded || locked.Status.IsTerminal() {
			return domain.NewDomainError(domain.ErrorCodeValidationInvalidTransition, "order payment settled while the charge was created").
				WithDetail("payment_status", string(locked.PaymentStatus)).
				WithDetail("charge_id", ref.ChargeID)
		}
		if err := s.orders.SetCharge(ctx, tx, locked.ID, ref.ChargeID, ref.RawData); err != nil {
			return fmt.Errorf("record charge: %w", err)
		}
		locked.GatewayChargeID = &ref.ChargeID
		locked.GatewayRawData = ref.RawData
		recorded = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

func chargeDescription(o *domain.Order) string {
	name := o.BasketName
	if name == "" {
		name = o.BasketType
	}
	return fmt.Sprintf("Pedido %s - %s", o.Code, name)
}

// PaymentStatus answers with the stored payment status when no charge exists.
// Otherwise it queries the gateway and reconciles before answering.
func (s *Service) PaymentStatus(ctx context.Context, code string) (*svcports.PaymentStatusResponse, error) {
	o, err := s.orders.GetByCode(ctx, s.db.GetDB(), code)
	if err != nil {
		return nil, err
	}
	if !o.HasCharge() {
		return statusResponse(o, ""), nil
	}

	state, err := s.gateway.QueryPayment(ctx, o.ChargeID())
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Reconcile(ctx, o.ID, observationFrom(state, domain.SourcePoll, o.ChargeID()))
	if err != nil {
		return nil, err
	}
	if res.Outcome == domain.OutcomeNotFound {
		return nil, domain.ErrOrderNotFound
	}
	return statusResponse(res.Order, state.RawStatus), nil
}

func statusResponse(o *domain.Order, gatewayStatus string) *svcports.PaymentStatusResponse {
	return &svcports.PaymentStatusResponse{
		Code:          o.Code,
		ChargeID:      o.ChargeID(),
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		GatewayStatus: gatewayStatus,
	}
}

func observationFrom(state *ports.PaymentState, source domain.ObservationSource, fallbackChargeID string) *domain.Observation {
	chargeID := state.ChargeID
	if chargeID == "" {
		chargeID = fallbackChargeID
	}
	return &domain.Observation{
		Source:            source,
		Status:            state.Status,
		ChargeID:          chargeID,
		ExternalReference: state.ExternalReference,
		Amount:            state.Amount,
		Detail:            state.StatusDetail,
		RawData:           state.RawData,
	}
}

// Refund returns money through the gateway, then cancels the order and marks
// it refunded. Refunds are never retried here: a repeated call is a new refund.
func (s *Service) Refund(ctx context.Context, req *svcports.RefundOrderRequest) (*svcports.RefundResponse, error) {
	o, err := s.orders.GetByID(ctx, s.db.GetDB(), req.OrderID)
	if err != nil {
		return nil, err
	}
	if !o.HasCharge() {
		return nil, domain.ErrNoChargeRegistered
	}

	amount := o.Total
	if req.Amount != nil {
		amount = *req.Amount
	}
	if !amount.IsPositive() || amount.GreaterThan(o.Total) {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "refund amount must be positive and not exceed the order total").
			WithDetail("amount", amount.String()).
			WithDetail("total", o.Total.String())
	}
	var partial *decimal.Decimal
	if !amount.Equal(o.Total) {
		partial = &amount
	}

	result, err := s.gateway.Refund(ctx, &ports.RefundRequest{
		ChargeID: o.ChargeID(),
		Method:   o.PaymentMethod,
		Amount:   partial,
		Reason:   req.Reason,
	})
	if err != nil {
		observability.RecordRefund(s.gateway.Name(), "error")
		s.logger.Error("Refund failed",
			zap.String("code", o.Code),
			zap.String("charge_id", o.ChargeID()),
			zap.Error(err))
		return nil, err
	}
	observability.RecordRefund(s.gateway.Name(), "success")
	if result.Amount.IsZero() {
		result.Amount = amount
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		locked, err := s.orders.GetByIDForUpdate(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		ok, err := s.orders.UpdatePaymentState(ctx, tx, ports.PaymentStateUpdate{
			OrderID:               locked.ID,
			Status:                domain.OrderStatusCancelled,
			PaymentStatus:         domain.PaymentStatusRefunded,
			ExpectedPaymentStatus: locked.PaymentStatus,
			RawData:               result.RawData,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflictRetryable
		}

		prev := locked.Status
		locked.Status = domain.OrderStatusCancelled
		locked.PaymentStatus = domain.PaymentStatusRefunded
		note := fmt.Sprintf("refund of %s (refund %s)", result.Amount.StringFixed(2), result.RefundID)
		if req.Reason != "" {
			note += ": " + req.Reason
		}
		if _, err := s.recorder.Transition(ctx, tx, locked, prev, events.TriggerRefund, note); err != nil {
			return err
		}
		o = locked
		return nil
	})
	if err != nil {
		// money already went back; the order row needs manual attention
		s.logger.Error("Refund succeeded at provider but order update failed",
			zap.String("code", o.Code),
			zap.String("refund_id", result.RefundID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Order refunded",
		zap.String("code", o.Code),
		zap.String("refund_id", result.RefundID),
		zap.String("amount", result.Amount.StringFixed(2)))

	return &svcports.RefundResponse{
		Order:    o,
		RefundID: result.RefundID,
		Status:   result.Status,
		Amount:   result.Amount,
	}, nil
}
