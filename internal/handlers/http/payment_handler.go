package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevin07696/order-service/internal/services/ports"
	"go.uber.org/zap"
)

// PaymentHandler serves charge creation, status polling and provider webhooks
type PaymentHandler struct {
	service ports.PaymentService
	logger  *zap.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(service ports.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, logger: logger}
}

type createChargeRequest struct {
	CardToken    string `json:"card_token"`
	Installments int    `json:"installments"`
}

// CreateCharge handles POST /api/payments/{code}/charge
func (h *PaymentHandler) CreateCharge(w http.ResponseWriter, r *http.Request) {
	var req createChargeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.service.CreateCharge(r.Context(), &ports.CreateChargeRequest{
		Code:         chi.URLParam(r, "code"),
		CardToken:    req.CardToken,
		Installments: req.Installments,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Status handles GET /api/payments/{code}/status
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.PaymentStatus(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Webhook handles POST /api/payments/webhook/{provider}. Providers retry on
// anything but 2xx, so the answer is always 200.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("Webhook body could not be read",
			zap.String("provider", provider),
			zap.Error(err))
	}

	result := h.service.HandleWebhook(r.Context(), &ports.WebhookNotification{
		Provider: provider,
		Body:     body,
		Query:    r.URL.Query(),
	})

	fields := []zap.Field{
		zap.String("provider", provider),
		zap.Int("received", result.Received),
		zap.Int("failed", result.Failed),
	}
	if result.Ignored != "" {
		fields = append(fields, zap.String("ignored", result.Ignored))
	}
	h.logger.Info("Webhook acknowledged", fields...)

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// VerifyWebhook handles GET on the webhook path, used by providers to check the URL
func (h *PaymentHandler) VerifyWebhook(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
