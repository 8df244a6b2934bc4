// Package mocks provides testify mocks for the domain ports.
package mocks

import (
	"context"
	"net/url"

	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

// MockPaymentGateway is a mock implementation of ports.PaymentGateway and ports.WebhookDecoder
type MockPaymentGateway struct {
	mock.Mock
	ProviderName string
}

var (
	_ ports.PaymentGateway = (*MockPaymentGateway)(nil)
	_ ports.WebhookDecoder = (*MockPaymentGateway)(nil)
)

// NewMockPaymentGateway creates a mock gateway reporting name
func NewMockPaymentGateway(name string) *MockPaymentGateway {
	return &MockPaymentGateway{ProviderName: name}
}

func (m *MockPaymentGateway) Name() string {
	return m.ProviderName
}

func (m *MockPaymentGateway) CreateCharge(ctx context.Context, req *ports.ChargeRequest) (*ports.ChargeRef, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ChargeRef), args.Error(1)
}

func (m *MockPaymentGateway) QueryPayment(ctx context.Context, chargeID string) (*ports.PaymentState, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.PaymentState), args.Error(1)
}

func (m *MockPaymentGateway) Refund(ctx context.Context, req *ports.RefundRequest) (*ports.RefundResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.RefundResult), args.Error(1)
}

func (m *MockPaymentGateway) DecodeWebhook(ctx context.Context, body []byte, query url.Values) ([]string, error) {
	args := m.Called(ctx, body, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
