package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/kevin07696/order-service/internal/auth"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/services/ports"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminHandler serves the authenticated order management endpoints
type AdminHandler struct {
	orders   ports.OrderService
	payments ports.PaymentService
	settings ports.SettingsService
	logger   *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(orders ports.OrderService, payments ports.PaymentService, settings ports.SettingsService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{orders: orders, payments: payments, settings: settings, logger: logger}
}

type transitionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type refundRequest struct {
	Amount *decimal.Decimal `json:"amount"`
	Reason string           `json:"reason"`
}

// GetOrder handles GET /api/admin/orders/{id}
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	result, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// TransitionStatus handles PATCH /api/admin/orders/{id}/status
func (h *AdminHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	o, err := h.orders.TransitionStatus(r.Context(), &ports.TransitionStatusRequest{
		OrderID: id,
		Status:  req.Status,
		Note:    req.Note,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("Order status set by admin",
		zap.String("actor", auth.Actor(r.Context())),
		zap.Int64("order_id", id),
		zap.String("status", string(o.Status)))
	writeJSON(w, http.StatusOK, o)
}

// Refund handles POST /api/admin/orders/{id}/refund
func (h *AdminHandler) Refund(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req refundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	resp, err := h.payments.Refund(r.Context(), &ports.RefundOrderRequest{
		OrderID: id,
		Amount:  req.Amount,
		Reason:  req.Reason,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("Order refunded by admin",
		zap.String("actor", auth.Actor(r.Context())),
		zap.Int64("order_id", id),
		zap.String("refund_id", resp.RefundID),
		zap.String("amount", resp.Amount.StringFixed(2)))
	writeJSON(w, http.StatusOK, resp)
}

// DeleteOrder handles DELETE /api/admin/orders/{id}
func (h *AdminHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("Order deleted by admin",
		zap.String("actor", auth.Actor(r.Context())),
		zap.Int64("order_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// GetSettings handles GET /api/admin/config
func (h *AdminHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

// UpdateSettings handles PUT /api/admin/config. String values are stored
// as-is and numbers or booleans as their JSON text.
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]json.RawMessage
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, h.logger, err)
		return
	}
	changes, err := settingValues(body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	updated, err := h.settings.Update(r.Context(), changes)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("Store settings changed by admin",
		zap.String("actor", auth.Actor(r.Context())),
		zap.Int("keys", len(changes)))
	writeJSON(w, http.StatusOK, updated)
}

func settingValues(body map[string]json.RawMessage) (domain.StoreSettings, error) {
	out := make(domain.StoreSettings, len(body))
	for key, raw := range body {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		switch raw[0] {
		case '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, domain.WrapError(domain.ErrorCodeValidationFailed, "invalid setting value", err).
					WithDetail("key", key)
			}
			out[key] = s
		case '{', '[', 'n':
			return nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "setting value must be a string, number or boolean").
				WithDetail("key", key)
		default:
			out[key] = string(raw)
		}
	}
	return out, nil
}
