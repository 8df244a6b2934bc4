package mocks

import (
	"context"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/services/ports"
	"github.com/stretchr/testify/mock"
)

// MockOrderService is a mock implementation of ports.OrderService
type MockOrderService struct {
	mock.Mock
}

// MockPaymentService is a mock implementation of ports.PaymentService
type MockPaymentService struct {
	mock.Mock
}

// MockSettingsService is a mock implementation of ports.SettingsService
type MockSettingsService struct {
	mock.Mock
}

var (
	_ ports.OrderService    = (*MockOrderService)(nil)
	_ ports.PaymentService  = (*MockPaymentService)(nil)
	_ ports.SettingsService = (*MockSettingsService)(nil)
)

func (m *MockOrderService) CreateOrder(ctx context.Context, req *ports.CreateOrderRequest) (*domain.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, code string) (*domain.OrderWithHistory, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderWithHistory), args.Error(1)
}

func (m *MockOrderService) GetOrderByID(ctx context.Context, id int64) (*domain.OrderWithHistory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrderWithHistory), args.Error(1)
}

func (m *MockOrderService) TransitionStatus(ctx context.Context, req *ports.TransitionStatusRequest) (*domain.Order, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *MockOrderService) DeleteOrder(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockOrderService) ListByPhone(ctx context.Context, phone string) ([]*domain.OrderSummary, error) {
	args := m.Called(ctx, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OrderSummary), args.Error(1)
}

func (m *MockPaymentService) CreateCharge(ctx context.Context, req *ports.CreateChargeRequest) (*ports.ChargeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ChargeResponse), args.Error(1)
}

func (m *MockPaymentService) PaymentStatus(ctx context.Context, code string) (*ports.PaymentStatusResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PaymentStatusResponse), args.Error(1)
}

func (m *MockPaymentService) HandleWebhook(ctx context.Context, n *ports.WebhookNotification) *ports.WebhookResult {
	return m.Called(ctx, n).Get(0).(*ports.WebhookResult)
}

func (m *MockPaymentService) Refund(ctx context.Context, req *ports.RefundOrderRequest) (*ports.RefundResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.RefundResponse), args.Error(1)
}

func (m *MockSettingsService) Get(ctx context.Context) (domain.StoreSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.StoreSettings), args.Error(1)
}

func (m *MockSettingsService) Update(ctx context.Context, changes domain.StoreSettings) (domain.StoreSettings, error) {
	args := m.Called(ctx, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.StoreSettings), args.Error(1)
}
