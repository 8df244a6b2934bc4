package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/services/ports"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderHandler serves the public order endpoints
type OrderHandler struct {
	service ports.OrderService
	logger  *zap.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(service ports.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{service: service, logger: logger}
}

type createOrderRequest struct {
	Total         *decimal.Decimal `json:"total"`
	Discount      *decimal.Decimal `json:"discount"`
	Customer      domain.Customer  `json:"customer"`
	Delivery      domain.Delivery  `json:"delivery"`
	BasketType    string           `json:"basket_type"`
	BasketName    string           `json:"basket_name"`
	PaymentMethod string           `json:"payment_method"`
	BasketPrice   decimal.Decimal  `json:"basket_price"`
	Quantity      int              `json:"quantity"`
}

// Create handles POST /api/orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	o, err := h.service.CreateOrder(r.Context(), &ports.CreateOrderRequest{
		Total:         req.Total,
		Discount:      req.Discount,
		Customer:      req.Customer,
		Delivery:      req.Delivery,
		BasketType:    req.BasketType,
		BasketName:    req.BasketName,
		PaymentMethod: req.PaymentMethod,
		BasketPrice:   req.BasketPrice,
		Quantity:      req.Quantity,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// Get handles GET /api/orders/{code}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type phoneLookupResponse struct {
	Orders []*domain.OrderSummary `json:"orders"`
}

// ByPhone handles GET /api/orders/phone/{phone}
func (h *OrderHandler) ByPhone(w http.ResponseWriter, r *http.Request) {
	found, err := h.service.ListByPhone(r.Context(), chi.URLParam(r, "phone"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if found == nil {
		found = []*domain.OrderSummary{}
	}
	writeJSON(w, http.StatusOK, phoneLookupResponse{Orders: found})
}
