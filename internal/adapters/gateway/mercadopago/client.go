// Package mercadopago implements the payment gateway on the Mercado Pago
// Checkout API through the official SDK.
package mercadopago

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kevin07696/order-service/internal/adapters/gateway"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/mperror"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/mercadopago/sdk-go/pkg/refund"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProviderName identifies Mercado Pago in logs, metrics and webhook routes
const ProviderName = "mercadopago"

const (
	methodPix    = "pix"
	methodBoleto = "bolbradesco"

	defaultEmail     = "cliente@araquaricestas.com"
	defaultFirstName = "Cliente"
	defaultLastName  = "Araquari"
	defaultDocument  = "00000000000"
)

var (
	_ ports.PaymentGateway = (*Client)(nil)
	_ ports.WebhookDecoder = (*Client)(nil)
)

// paymentAPI is the part of the SDK payment client the adapter uses
type paymentAPI interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
	Get(ctx context.Context, id int) (*payment.Response, error)
}

// refundAPI is the part of the SDK refund client the adapter uses
type refundAPI interface {
	Create(ctx context.Context, paymentID int) (*refund.Response, error)
	CreatePartialRefund(ctx context.Context, paymentID int, amount float64) (*refund.Response, error)
}

// Config holds Mercado Pago settings
type Config struct {
	AccessToken     string
	NotificationURL string
	FallbackEmail   string
}

// Client implements ports.PaymentGateway for Mercado Pago
type Client struct {
	payments        paymentAPI
	refunds         refundAPI
	logger          *zap.Logger
	notificationURL string
	fallbackEmail   string
}

// NewClient creates a Mercado Pago client from an access token
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	sdkCfg, err := config.New(cfg.AccessToken)
	if err != nil {
		return nil, err
	}
	return newClient(payment.NewClient(sdkCfg), refund.NewClient(sdkCfg), cfg, logger), nil
}

func newClient(payments paymentAPI, refunds refundAPI, cfg Config, logger *zap.Logger) *Client {
	if cfg.FallbackEmail == "" {
		cfg.FallbackEmail = defaultEmail
	}
	return &Client{
		payments:        payments,
		refunds:         refunds,
		logger:          logger,
		notificationURL: cfg.NotificationURL,
		fallbackEmail:   cfg.FallbackEmail,
	}
}

// Name implements ports.PaymentGateway
func (c *Client) Name() string {
	return ProviderName
}

// CreateCharge implements ports.PaymentGateway
func (c *Client) CreateCharge(ctx context.Context, req *ports.ChargeRequest) (*ports.ChargeRef, error) {
	request := payment.Request{
		TransactionAmount: req.Amount.InexactFloat64(),
		Description:       chargeDescription(req),
		ExternalReference: req.OrderCode,
		NotificationURL:   c.notificationURL,
		Payer:             c.payer(req),
	}

	switch {
	case req.Method == domain.PaymentMethodPix:
		request.PaymentMethodID = methodPix
	case req.Method.IsBoleto():
		request.PaymentMethodID = methodBoleto
		if req.DueDate != nil {
			due := endOfDay(*req.DueDate)
			request.DateOfExpiration = &due
		}
		request.Payer.Address = payerAddress(req.Address)
	case req.Method == domain.PaymentMethodCard:
		installments := req.Installments
		if installments < 1 {
			installments = 1
		}
		request.Token = req.CardToken
		request.Installments = installments
	default:
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "payment method not supported").
			WithDetail("payment_method", string(req.Method))
	}

	resp, err := c.payments.Create(ctx, request)
	if err != nil {
		return nil, mapError(err)
	}

	ref := &ports.ChargeRef{
		RawData:      marshalRaw(resp),
		ChargeID:     strconv.Itoa(resp.ID),
		Status:       NormalizeStatus(resp.Status),
		StatusDetail: resp.StatusDetail,
		PixCopyPaste: resp.PointOfInteraction.TransactionData.QRCode,
		QRCodeImage:  resp.PointOfInteraction.TransactionData.QRCodeBase64,
		BoletoURL:    resp.TransactionDetails.ExternalResourceURL,
	}
	if ref.BoletoURL == "" {
		ref.BoletoURL = resp.PointOfInteraction.TransactionData.TicketURL
	}

	c.logger.Info("Mercado Pago payment created",
		zap.String("order_code", req.OrderCode),
		zap.String("payment_method", string(req.Method)),
		zap.String("charge_id", ref.ChargeID),
		zap.String("status", resp.Status),
		zap.String("status_detail", resp.StatusDetail))
	return ref, nil
}

// QueryPayment implements ports.PaymentGateway
func (c *Client) QueryPayment(ctx context.Context, chargeID string) (*ports.PaymentState, error) {
	id, err := paymentID(chargeID)
	if err != nil {
		return nil, err
	}
	resp, err := c.payments.Get(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	amount := decimal.NewFromFloat(resp.TransactionAmount).Round(2)
	return &ports.PaymentState{
		Amount:            &amount,
		RawData:           marshalRaw(resp),
		ChargeID:          strconv.Itoa(resp.ID),
		Status:            NormalizeStatus(resp.Status),
		RawStatus:         resp.Status,
		StatusDetail:      resp.StatusDetail,
		ExternalReference: resp.ExternalReference,
	}, nil
}

// Refund implements ports.PaymentGateway. A nil amount refunds the whole payment.
func (c *Client) Refund(ctx context.Context, req *ports.RefundRequest) (*ports.RefundResult, error) {
	id, err := paymentID(req.ChargeID)
	if err != nil {
		return nil, err
	}

	var resp *refund.Response
	if req.Amount != nil {
		resp, err = c.refunds.CreatePartialRefund(ctx, id, req.Amount.InexactFloat64())
	} else {
		resp, err = c.refunds.Create(ctx, id)
	}
	if err != nil {
		return nil, mapError(err)
	}

	result := &ports.RefundResult{
		Amount:   decimal.NewFromFloat(resp.Amount).Round(2),
		RawData:  marshalRaw(resp),
		RefundID: strconv.Itoa(resp.ID),
		Status:   resp.Status,
	}
	c.logger.Info("Mercado Pago refund created",
		zap.String("charge_id", req.ChargeID),
		zap.String("refund_id", result.RefundID),
		zap.String("amount", result.Amount.StringFixed(2)))
	return result, nil
}

func (c *Client) payer(req *ports.ChargeRequest) *payment.PayerRequest {
	first, last := splitName(req.Customer.Name)
	email := req.Customer.Email
	if email == "" {
		email = c.fallbackEmail
	}
	document := digitsOnly(req.Customer.Document)
	if document == "" {
		document = defaultDocument
	}
	docType := "CPF"
	if len(document) == 14 {
		docType = "CNPJ"
	}
	return &payment.PayerRequest{
		Email:     email,
		FirstName: first,
		LastName:  last,
		Identification: &payment.IdentificationRequest{
			Type:   docType,
			Number: document,
		},
	}
}

func payerAddress(d domain.Delivery) *payment.AddressRequest {
	return &payment.AddressRequest{
		ZipCode:      orDefault(digitsOnly(d.PostalCode), "89245000"),
		StreetName:   orDefault(d.Address, "Rua Principal"),
		StreetNumber: orDefault(d.Number, "S/N"),
		Neighborhood: orDefault(d.Neighborhood, "Centro"),
		City:         orDefault(d.City, "Araquari"),
		FederalUnit:  orDefault(d.State, "SC"),
	}
}

func chargeDescription(req *ports.ChargeRequest) string {
	if req.Description == "" {
		return "Pedido " + req.OrderCode
	}
	return req.Description + " - Pedido " + req.OrderCode
}

// mapError turns SDK response errors into domain errors
func mapError(err error) error {
	var respErr *mperror.ResponseError
	if errors.As(err, &respErr) {
		return gateway.StatusError(ProviderName, respErr.StatusCode, respErr.Message)
	}
	return err
}

func paymentID(chargeID string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(chargeID))
	if err != nil || id <= 0 {
		return 0, domain.NewDomainError(domain.ErrorCodeValidationFailed, "invalid Mercado Pago payment id").
			WithDetail("charge_id", chargeID)
	}
	return id, nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return defaultFirstName, defaultLastName
	case 1:
		return parts[0], defaultLastName
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}

// boletos stay payable until the end of their due date
func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
