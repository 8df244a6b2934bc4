// Package order implements order creation, lookup, admin status changes and purge.
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/kevin07696/order-service/internal/services/events"
	svcports "github.com/kevin07696/order-service/internal/services/ports"
	"github.com/kevin07696/order-service/pkg/observability"
	"github.com/kevin07696/order-service/pkg/resilience"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var _ svcports.OrderService = (*Service)(nil)

const (
	// a shorter fragment would match unrelated customers
	minPhoneDigits   = 8
	phoneLookupLimit = 20
)

// Config holds defaults applied to new orders
type Config struct {
	DefaultCity     string
	DefaultState    string
	MaxAttempts     int
	ConflictBackoff time.Duration
}

// Service implements svcports.OrderService
type Service struct {
	db       ports.DBPort
	orders   ports.OrderRepository
	logs     ports.StatusLogRepository
	recorder *events.Recorder
	codes    *CodeGenerator
	backoff  resilience.BackoffStrategy
	logger   *zap.Logger
	cfg      Config
}

// NewService creates a new order service
func NewService(
	db ports.DBPort,
	orders ports.OrderRepository,
	logs ports.StatusLogRepository,
	recorder *events.Recorder,
	codes *CodeGenerator,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.DefaultState == "" {
		cfg.DefaultState = "SC"
	}
	return &Service{
		db:       db,
		orders:   orders,
		logs:     logs,
		recorder: recorder,
		codes:    codes,
		backoff:  resilience.ConflictBackoff(cfg.ConflictBackoff),
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateOrder validates the request, generates a code and inserts the order
// with its creation log entry. A code collision regenerates the code.
func (s *Service) CreateOrder(ctx context.Context, req *svcports.CreateOrderRequest) (*domain.Order, error) {
	o, err := s.buildOrder(req)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
			code, err := s.codes.Next(ctx, tx)
			if err != nil {
				return fmt.Errorf("generate code: %w", err)
			}
			o.Code = code
			if err := s.orders.Create(ctx, tx, o); err != nil {
				return err
			}
			_, err = s.recorder.Created(ctx, tx, o)
			return err
		})
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrConflictRetryable) || attempt+1 >= s.cfg.MaxAttempts {
			o.ID, o.Code = 0, ""
			return nil, err
		}

		observability.RecordCodeConflict()
		s.logger.Warn("Order code collision, regenerating",
			zap.String("code", o.Code),
			zap.Int("attempt", attempt+1))
		o.ID = 0
		if err := resilience.Sleep(ctx, s.backoff.NextDelay(attempt)); err != nil {
			return nil, err
		}
	}

	observability.RecordOrderCreated(string(o.PaymentMethod))
	s.logger.Info("Order created",
		zap.String("code", o.Code),
		zap.String("basket", o.BasketName),
		zap.String("payment_method", string(o.PaymentMethod)),
		zap.String("total", o.Total.StringFixed(2)))
	return o, nil
}

func (s *Service) buildOrder(req *svcports.CreateOrderRequest) (*domain.Order, error) {
	missing := make([]string, 0, 4)
	if strings.TrimSpace(req.BasketType) == "" {
		missing = append(missing, "basket_type")
	}
	if strings.TrimSpace(req.Delivery.RecipientName) == "" {
		missing = append(missing, "recipient_name")
	}
	if strings.TrimSpace(req.Delivery.RecipientPhone) == "" {
		missing = append(missing, "recipient_phone")
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		missing = append(missing, "payment_method")
	}
	if len(missing) > 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "required fields missing").
			WithDetail("fields", missing)
	}

	method, err := domain.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	discount := decimal.Zero
	if req.Discount != nil {
		discount = *req.Discount
	}
	if discount.IsNegative() {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "discount must not be negative")
	}
	total := req.BasketPrice.Mul(decimal.NewFromInt(int64(quantity))).Sub(discount)
	if req.Total != nil {
		total = *req.Total
	}
	// validated as stored: 0.001 would round to a zero total
	total = total.Round(2)
	if !total.IsPositive() {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid, "total must be positive").
			WithDetail("total", total.String())
	}

	delivery := req.Delivery
	delivery.State = NormalizeState(delivery.State, s.cfg.DefaultState)
	if strings.TrimSpace(delivery.City) == "" {
		delivery.City = s.cfg.DefaultCity
	}

	return &domain.Order{
		BasketType:    strings.TrimSpace(req.BasketType),
		BasketName:    strings.TrimSpace(req.BasketName),
		BasketPrice:   req.BasketPrice.Round(2),
		Quantity:      quantity,
		Customer:      req.Customer,
		Delivery:      delivery,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusPending,
		Status:        domain.InitialStatus(method),
		Discount:      discount.Round(2),
		Total:         total,
	}, nil
}

// GetOrder returns an order and its history by code
func (s *Service) GetOrder(ctx context.Context, code string) (*domain.OrderWithHistory, error) {
	return s.withHistory(ctx, func(ctx context.Context, tx pgx.Tx) (*domain.Order, error) {
		return s.orders.GetByCode(ctx, tx, code)
	})
}

// GetOrderByID returns an order and its history by ID
func (s *Service) GetOrderByID(ctx context.Context, id int64) (*domain.OrderWithHistory, error) {
	return s.withHistory(ctx, func(ctx context.Context, tx pgx.Tx) (*domain.Order, error) {
		return s.orders.GetByID(ctx, tx, id)
	})
}

func (s *Service) withHistory(ctx context.Context, load func(context.Context, pgx.Tx) (*domain.Order, error)) (*domain.OrderWithHistory, error) {
	var out *domain.OrderWithHistory
	err := s.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		o, err := load(ctx, tx)
		if err != nil {
			return err
		}
		history, err := s.logs.ListByOrder(ctx, tx, o.ID)
		if err != nil {
			return fmt.Errorf("list status log: %w", err)
		}
		out = &domain.OrderWithHistory{Order: o, History: history}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionStatus applies an admin status change. Terminal orders cannot
// move and setting the current status again is a no-op.
func (s *Service) TransitionStatus(ctx context.Context, req *svcports.TransitionStatusRequest) (*domain.Order, error) {
	next, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var result *domain.Order
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		o, err := s.orders.GetByIDForUpdate(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		result = o
		if o.Status == next {
			return nil
		}
		if o.Status.IsTerminal() {
			return domain.NewDomainError(domain.ErrorCodeValidationInvalidTransition, "order is in a terminal status").
				WithDetail("from", string(o.Status)).
				WithDetail("to", string(next))
		}

		var payment *domain.PaymentStatus
		if ps, ok := domain.CoupledPaymentStatus(next, o.PaymentMethod); ok {
			payment = &ps
		}
		ok, err := s.orders.UpdateStatus(ctx, tx, o.ID, o.Status, next, payment)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflictRetryable
		}

		prev := o.Status
		o.Status = next
		if payment != nil {
			o.PaymentStatus = *payment
		}
		note := strings.TrimSpace(req.Note)
		if note == "" {
			note = fmt.Sprintf("status changed to %s", next)
		}
		_, err = s.recorder.Transition(ctx, tx, o, prev, events.TriggerAdmin, note)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order status changed by admin",
		zap.Int64("order_id", result.ID),
		zap.String("code", result.Code),
		zap.String("status", string(result.Status)),
		zap.String("payment_status", string(result.PaymentStatus)))
	return result, nil
}

// ListByPhone looks up the latest orders by recipient phone. Formatting in
// phone is ignored.
func (s *Service) ListByPhone(ctx context.Context, phone string) ([]*domain.OrderSummary, error) {
	digits := PhoneDigits(phone)
	if len(digits) < minPhoneDigits {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "phone must have at least 8 digits").
			WithDetail("digits", len(digits))
	}

	var orders []*domain.Order
	err := s.db.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		orders, err = s.orders.ListByPhone(ctx, tx, digits, phoneLookupLimit)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]*domain.OrderSummary, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.Summary())
	}
	return out, nil
}

// DeleteOrder removes the status log and the order in one transaction
func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	var code string
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		o, err := s.orders.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		code = o.Code
		if err := s.logs.DeleteByOrder(ctx, tx, id); err != nil {
			return fmt.Errorf("delete status log: %w", err)
		}
		return s.orders.Delete(ctx, tx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Warn("Order purged", zap.Int64("order_id", id), zap.String("code", code))
	return nil
}
