package efi

import (
	"context"
	"strings"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"go.uber.org/zap"
)

// CreateCharge implements ports.PaymentGateway. PIX goes to the PIX API,
// boletos and cards to the charges API.
func (c *Client) CreateCharge(ctx context.Context, req *ports.ChargeRequest) (*ports.ChargeRef, error) {
	var (
		ref *ports.ChargeRef
		err error
	)
	if req.Method == domain.PaymentMethodPix {
		if c.pixKey == "" {
			return nil, domain.NewDomainError(domain.ErrorCodeGatewayNotConfigured, "efi pix key not configured")
		}
		ref, err = c.createPix(ctx, req)
	} else {
		ref, err = c.createOneStep(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("Efi charge created",
		zap.String("order_code", req.OrderCode),
		zap.String("payment_method", string(req.Method)),
		zap.String("charge_id", ref.ChargeID),
		zap.String("status", string(ref.Status)))
	return ref, nil
}

// QueryPayment implements ports.PaymentGateway
func (c *Client) QueryPayment(ctx context.Context, chargeID string) (*ports.PaymentState, error) {
	chargeID = strings.TrimSpace(chargeID)
	if chargeID == "" {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "charge id is required")
	}
	if isChargeID(chargeID) {
		return c.queryCharge(ctx, chargeID)
	}
	state, _, err := c.queryPix(ctx, chargeID)
	return state, err
}
