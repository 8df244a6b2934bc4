package efi

import (
	"context"
	"net/http"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type pixRefundRequest struct {
	Valor string `json:"valor"`
}

type pixRefundResponse struct {
	ID     string `json:"id"`
	RtrID  string `json:"rtrId"`
	Valor  string `json:"valor"`
	Status string `json:"status"`
}

type cardRefundRequest struct {
	Amount int64 `json:"amount,omitempty"` // cents
}

// Refund implements ports.PaymentGateway. Boletos cannot be refunded
// through Efi.
func (c *Client) Refund(ctx context.Context, req *ports.RefundRequest) (*ports.RefundResult, error) {
	var (
		result *ports.RefundResult
		err    error
	)
	switch {
	case req.Method == domain.PaymentMethodPix:
		result, err = c.refundPix(ctx, req)
	case req.Method == domain.PaymentMethodCard:
		result, err = c.refundCard(ctx, req)
	default:
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "efi cannot refund this payment method").
			WithDetail("payment_method", string(req.Method))
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("Efi refund requested",
		zap.String("charge_id", req.ChargeID),
		zap.String("refund_id", result.RefundID),
		zap.String("amount", result.Amount.StringFixed(2)),
		zap.String("status", result.Status))
	return result, nil
}

func (c *Client) refundPix(ctx context.Context, req *ports.RefundRequest) (*ports.RefundResult, error) {
	_, charge, err := c.queryPix(ctx, req.ChargeID)
	if err != nil {
		return nil, err
	}
	if len(charge.Pix) == 0 {
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "no PIX payment received for this charge")
	}
	payment := charge.Pix[0]

	amount, err := decimal.NewFromString(payment.Valor)
	if err != nil {
		amount, _ = decimal.NewFromString(charge.Valor.Original)
	}
	if req.Amount != nil {
		amount = *req.Amount
	}

	refundID := c.newRefundID()
	var resp pixRefundResponse
	raw, err := c.pix.do(ctx, http.MethodPut, "/v2/pix/"+payment.EndToEndID+"/devolucao/"+refundID,
		pixRefundRequest{Valor: amount.StringFixed(2)}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID != "" {
		refundID = resp.ID
	}
	return &ports.RefundResult{
		Amount:   amount,
		RawData:  raw,
		RefundID: refundID,
		Status:   resp.Status,
	}, nil
}

func (c *Client) refundCard(ctx context.Context, req *ports.RefundRequest) (*ports.RefundResult, error) {
	body := cardRefundRequest{}
	var amount decimal.Decimal
	if req.Amount != nil {
		amount = *req.Amount
		body.Amount = toCents(amount)
	} else {
		state, err := c.queryCharge(ctx, req.ChargeID)
		if err != nil {
			return nil, err
		}
		amount = *state.Amount
	}

	raw, err := c.charges.do(ctx, http.MethodPost, "/v1/charge/card/"+req.ChargeID+"/refund", body, nil)
	if err != nil {
		return nil, err
	}
	return &ports.RefundResult{
		Amount:   amount,
		RawData:  raw,
		RefundID: req.ChargeID,
		Status:   "refunded",
	}, nil
}
