package efi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	"github.com/shopspring/decimal"
)

const expireAtLayout = "2006-01-02"

type chargeItem struct {
	Name   string `json:"name"`
	Value  int64  `json:"value"` // cents
	Amount int    `json:"amount"`
}

type chargeMetadata struct {
	CustomID string `json:"custom_id,omitempty"`
}

type chargeCustomer struct {
	Name        string `json:"name"`
	CPF         string `json:"cpf,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
}

type billingAddress struct {
	Street       string `json:"street"`
	Number       string `json:"number"`
	Neighborhood string `json:"neighborhood"`
	Zipcode      string `json:"zipcode"`
	City         string `json:"city"`
	State        string `json:"state"`
	Complement   string `json:"complement,omitempty"`
}

type bankingBillet struct {
	Customer chargeCustomer `json:"customer"`
	ExpireAt string         `json:"expire_at"`
	Message  string         `json:"message,omitempty"`
}

type creditCard struct {
	BillingAddress *billingAddress `json:"billing_address,omitempty"`
	Customer       chargeCustomer  `json:"customer"`
	PaymentToken   string          `json:"payment_token"`
	Installments   int             `json:"installments"`
}

type chargePayment struct {
	BankingBillet *bankingBillet `json:"banking_billet,omitempty"`
	CreditCard    *creditCard    `json:"credit_card,omitempty"`
}

type oneStepRequest struct {
	Metadata *chargeMetadata `json:"metadata,omitempty"`
	Payment  chargePayment   `json:"payment"`
	Items    []chargeItem    `json:"items"`
}

type chargeData struct {
	Status   string `json:"status"`
	CustomID string `json:"custom_id"`
	Link     string `json:"link"`
	Barcode  string `json:"barcode"`
	Reason   string `json:"reason"`
	Pdf      struct {
		Charge string `json:"charge"`
	} `json:"pdf"`
	ChargeID int64 `json:"charge_id"`
	Total    int64 `json:"total"` // cents
}

type chargeResponse struct {
	Data chargeData `json:"data"`
	Code int        `json:"code"`
}

func (c *Client) createOneStep(ctx context.Context, req *ports.ChargeRequest) (*ports.ChargeRef, error) {
	name := req.Description
	if name == "" {
		name = "Pedido " + req.OrderCode
	}
	customer := chargeCustomer{
		Name:        req.Customer.Name,
		CPF:         digitsOnly(req.Customer.Document),
		PhoneNumber: digitsOnly(req.Customer.Phone),
	}

	body := oneStepRequest{
		Items:    []chargeItem{{Name: truncate(name, 255), Value: toCents(req.Amount), Amount: 1}},
		Metadata: &chargeMetadata{CustomID: req.OrderCode},
	}
	switch {
	case req.Method.IsBoleto():
		if req.DueDate == nil {
			return nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "boleto due date is required")
		}
		body.Payment.BankingBillet = &bankingBillet{
			Customer: customer,
			ExpireAt: req.DueDate.Format(expireAtLayout),
			Message:  truncate(fmt.Sprintf("Pedido %s - %s", req.OrderCode, name), 80),
		}
	case req.Method == domain.PaymentMethodCard:
		customer.Email = req.Customer.Email
		if customer.Email == "" {
			customer.Email = c.fallbackEmail
		}
		installments := req.Installments
		if installments < 1 {
			installments = 1
		}
		body.Payment.CreditCard = &creditCard{
			Customer:       customer,
			PaymentToken:   req.CardToken,
			Installments:   installments,
			BillingAddress: billingFrom(req.Address),
		}
	default:
		return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "payment method not supported by the charges API").
			WithDetail("payment_method", string(req.Method))
	}

	var resp chargeResponse
	raw, err := c.charges.do(ctx, http.MethodPost, "/v1/charge/one-step", body, &resp)
	if err != nil {
		return nil, err
	}
	return &ports.ChargeRef{
		RawData:       raw,
		ChargeID:      fmt.Sprintf("%d", resp.Data.ChargeID),
		Status:        NormalizeStatus(resp.Data.Status),
		StatusDetail:  resp.Data.Reason,
		BoletoURL:     firstNonEmpty(resp.Data.Pdf.Charge, resp.Data.Link),
		BoletoBarcode: resp.Data.Barcode,
	}, nil
}

func (c *Client) queryCharge(ctx context.Context, chargeID string) (*ports.PaymentState, error) {
	var resp chargeResponse
	raw, err := c.charges.do(ctx, http.MethodGet, "/v1/charge/"+chargeID, nil, &resp)
	if err != nil {
		return nil, err
	}
	amount := fromCents(resp.Data.Total)
	return &ports.PaymentState{
		RawData:           raw,
		ChargeID:          chargeID,
		Status:            NormalizeStatus(resp.Data.Status),
		RawStatus:         resp.Data.Status,
		StatusDetail:      resp.Data.Reason,
		ExternalReference: resp.Data.CustomID,
		Amount:            &amount,
	}, nil
}

func billingFrom(d domain.Delivery) *billingAddress {
	if d.Address == "" || d.PostalCode == "" {
		return nil
	}
	return &billingAddress{
		Street:       d.Address,
		Number:       firstNonEmpty(d.Number, "S/N"),
		Neighborhood: d.Neighborhood,
		Zipcode:      digitsOnly(d.PostalCode),
		City:         d.City,
		State:        d.State,
		Complement:   d.Complement,
	}
}

// isChargeID reports whether id belongs to the charges API (numeric) rather than PIX
func isChargeID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
