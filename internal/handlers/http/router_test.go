package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kevin07696/order-service/internal/auth"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/services/ports"
	"github.com/kevin07696/order-service/internal/testutil/fixtures"
	"github.com/kevin07696/order-service/internal/testutil/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const adminToken = "s3cret-admin"

type apiFixture struct {
	orders   *mocks.MockOrderService
	payments *mocks.MockPaymentService
	settings *mocks.MockSettingsService
	handler  http.Handler
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	authenticator, err := auth.NewStaticToken(adminToken)
	require.NoError(t, err)

	f := &apiFixture{
		orders:   new(mocks.MockOrderService),
		payments: new(mocks.MockPaymentService),
		settings: new(mocks.MockSettingsService),
	}
	f.handler = NewRouter(RouterConfig{
		Orders:        f.orders,
		Payments:      f.payments,
		Settings:      f.settings,
		Authenticator: authenticator,
		Logger:        zap.NewNop(),
		Development:   true,
	})
	t.Cleanup(func() {
		f.orders.AssertExpectations(t)
		f.payments.AssertExpectations(t)
		f.settings.AssertExpectations(t)
	})
	return f
}

func (f *apiFixture) do(method, target, body string, header ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateOrder(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		api := newAPI(t)
		order := fixtures.NewOrder().WithCode("AC-20250314-0001").Build()
		api.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req *ports.CreateOrderRequest) bool {
			return req.BasketType == "media" &&
				req.PaymentMethod == "pix" &&
				req.Quantity == 2 &&
				req.BasketPrice.Equal(decimal.RequireFromString("75")) &&
				req.Delivery.RecipientName == "Maria" &&
				req.Total == nil
		})).Return(order, nil)

		rec := api.do(http.MethodPost, "/api/orders", `{
			"basket_type": "media",
			"payment_method": "pix",
			"quantity": 2,
			"basket_price": "75.00",
			"delivery": {"recipient_name": "Maria", "recipient_phone": "47999990000"}
		}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var got domain.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "AC-20250314-0001", got.Code)
	})

	t.Run("validation error", func(t *testing.T) {
		api := newAPI(t)
		api.orders.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, domain.NewDomainError(domain.ErrorCodeValidationMissingField, "recipient name is required").
				WithDetail("field", "delivery.recipient_name"))

		rec := api.do(http.MethodPost, "/api/orders", `{"basket_type":"media"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "VALIDATION_MISSING_FIELD", resp.Code)
		assert.Equal(t, "delivery.recipient_name", resp.Details["field"])
	})

	t.Run("malformed body", func(t *testing.T) {
		api := newAPI(t)

		rec := api.do(http.MethodPost, "/api/orders", `{"basket_type":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Code)
	})

	t.Run("internal error hides cause", func(t *testing.T) {
		api := newAPI(t)
		api.orders.On("CreateOrder", mock.Anything, mock.Anything).
			Return(nil, errors.New("pq: connection refused"))

		rec := api.do(http.MethodPost, "/api/orders", `{}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "INTERNAL_ERROR", resp.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestGetOrder(t *testing.T) {
	api := newAPI(t)
	order := fixtures.NewOrder().WithCode("AC-20250314-0002").Build()
	api.orders.On("GetOrder", mock.Anything, "AC-20250314-0002").
		Return(&domain.OrderWithHistory{Order: order}, nil)
	api.orders.On("GetOrder", mock.Anything, "AC-19990101-0001").
		Return(nil, domain.ErrOrderNotFound)

	rec := api.do(http.MethodGet, "/api/orders/AC-20250314-0002", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"AC-20250314-0002"`)

	rec = api.do(http.MethodGet, "/api/orders/AC-19990101-0001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", decodeError(t, rec).Code)
}

func TestPaymentEndpoints(t *testing.T) {
	t.Run("charge", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("CreateCharge", mock.Anything, &ports.CreateChargeRequest{
			Code:         "AC-20250314-0003",
			CardToken:    "tok_123",
			Installments: 3,
		}).Return(&ports.ChargeResponse{ChargeID: "991", Status: "pending"}, nil)

		rec := api.do(http.MethodPost, "/api/payments/AC-20250314-0003/charge", `{"card_token":"tok_123","installments":3}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"charge_id":"991"`)
	})

	t.Run("charge with gateway down", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("CreateCharge", mock.Anything, mock.Anything).Return(nil, domain.ErrGatewayUnavailable)

		rec := api.do(http.MethodPost, "/api/payments/AC-20250314-0003/charge", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "GATEWAY_UNAVAILABLE", decodeError(t, rec).Code)
	})

	t.Run("status", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("PaymentStatus", mock.Anything, "AC-20250314-0004").Return(&ports.PaymentStatusResponse{
			Code:          "AC-20250314-0004",
			Status:        domain.OrderStatusConfirmed,
			PaymentStatus: domain.PaymentStatusApproved,
		}, nil)

		rec := api.do(http.MethodGet, "/api/payments/AC-20250314-0004/status", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"payment_status":"approved"`)
	})
}

func TestWebhook(t *testing.T) {
	t.Run("always acknowledges", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("HandleWebhook", mock.Anything, mock.MatchedBy(func(n *ports.WebhookNotification) bool {
			return n.Provider == "efi" && string(n.Body) == `{"pix":[{"txid":"abc"}]}`
		})).Return(&ports.WebhookResult{Received: 1, Failed: 1})

		rec := api.do(http.MethodPost, "/api/payments/webhook/efi/pix", `{"pix":[{"txid":"abc"}]}`)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("passes the query", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("HandleWebhook", mock.Anything, mock.MatchedBy(func(n *ports.WebhookNotification) bool {
			return n.Provider == "mercadopago" && n.Query.Get("topic") == "payment" && n.Query.Get("id") == "42"
		})).Return(&ports.WebhookResult{Ignored: "provider not active"})

		rec := api.do(http.MethodPost, "/api/payments/webhook/mercadopago?topic=payment&id=42", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("verification GET", func(t *testing.T) {
		api := newAPI(t)

		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/payments/webhook/efi", "").Code)
		assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/payments/webhook/efi/pix", "").Code)
	})
}

func TestAdminEndpoints(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		api := newAPI(t)

		rec := api.do(http.MethodGet, "/api/admin/orders/1", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = api.do(http.MethodGet, "/api/admin/orders/1", "", "X-Admin-Token", "wrong")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("get order", func(t *testing.T) {
		api := newAPI(t)
		order := fixtures.NewOrder().WithID(7).Build()
		api.orders.On("GetOrderByID", mock.Anything, int64(7)).Return(&domain.OrderWithHistory{Order: order}, nil)

		rec := api.do(http.MethodGet, "/api/admin/orders/7", "", "X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("query token", func(t *testing.T) {
		api := newAPI(t)
		api.orders.On("GetOrderByID", mock.Anything, int64(8)).Return(nil, domain.ErrOrderNotFound)

		rec := api.do(http.MethodGet, "/api/admin/orders/8?token="+adminToken, "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		api := newAPI(t)

		rec := api.do(http.MethodGet, "/api/admin/orders/abc", "", "X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("transition", func(t *testing.T) {
		api := newAPI(t)
		order := fixtures.NewOrder().WithID(9).WithStatus(domain.OrderStatusApproved).Build()
		api.orders.On("TransitionStatus", mock.Anything, &ports.TransitionStatusRequest{
			OrderID: 9,
			Status:  "approved",
			Note:    "boleto conferido",
		}).Return(order, nil)

		rec := api.do(http.MethodPatch, "/api/admin/orders/9/status", `{"status":"approved","note":"boleto conferido"}`,
			"Authorization", "Bearer "+adminToken)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"approved"`)
	})

	t.Run("transition out of terminal status", func(t *testing.T) {
		api := newAPI(t)
		api.orders.On("TransitionStatus", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidTransition)

		rec := api.do(http.MethodPatch, "/api/admin/orders/9/status", `{"status":"new"}`, "X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_INVALID_TRANSITION", decodeError(t, rec).Code)
	})

	t.Run("partial refund", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("Refund", mock.Anything, mock.MatchedBy(func(req *ports.RefundOrderRequest) bool {
			return req.OrderID == 10 && req.Amount != nil && req.Amount.Equal(decimal.RequireFromString("20.5"))
		})).Return(&ports.RefundResponse{RefundID: "r1", Status: "done", Amount: decimal.RequireFromString("20.50")}, nil)

		rec := api.do(http.MethodPost, "/api/admin/orders/10/refund", `{"amount":"20.50"}`, "X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"refund_id":"r1"`)
	})

	t.Run("refund without charge", func(t *testing.T) {
		api := newAPI(t)
		api.payments.On("Refund", mock.Anything, mock.MatchedBy(func(req *ports.RefundOrderRequest) bool {
			return req.OrderID == 11 && req.Amount == nil
		})).Return(nil, domain.ErrNoChargeRegistered)

		rec := api.do(http.MethodPost, "/api/admin/orders/11/refund", "", "X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "NO_CHARGE_REGISTERED", decodeError(t, rec).Code)
	})

	t.Run("delete", func(t *testing.T) {
		api := newAPI(t)
		api.orders.On("DeleteOrder", mock.Anything, int64(12)).Return(nil)

		rec := api.do(http.MethodDelete, "/api/admin/orders/12", "", "X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestOrdersByPhone(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		api := newAPI(t)
		summary := fixtures.NewOrder().WithID(3).Build().Summary()
		api.orders.On("ListByPhone", mock.Anything, "47-98888-7777").
			Return([]*domain.OrderSummary{summary}, nil)

		rec := api.do(http.MethodGet, "/api/orders/phone/47-98888-7777", "")

		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Orders []map[string]interface{} `json:"orders"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Orders, 1)
		assert.Equal(t, "AC-20250314-0001", resp.Orders[0]["code"])
		assert.NotContains(t, resp.Orders[0], "customer", "lookup exposes no personal data")
	})

	t.Run("none found is an empty list", func(t *testing.T) {
		api := newAPI(t)
		api.orders.On("ListByPhone", mock.Anything, "47911112222").Return(nil, nil)

		rec := api.do(http.MethodGet, "/api/orders/phone/47911112222", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"orders":[]}`, rec.Body.String())
	})

	t.Run("too short", func(t *testing.T) {
		api := newAPI(t)
		api.orders.On("ListByPhone", mock.Anything, "7777").
			Return(nil, domain.NewDomainError(domain.ErrorCodeValidationFailed, "phone must have at least 8 digits"))

		rec := api.do(http.MethodGet, "/api/orders/phone/7777", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminSettings(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		api := newAPI(t)

		rec := api.do(http.MethodGet, "/api/admin/config", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = api.do(http.MethodPut, "/api/admin/config", `{"delivery_fee":"15.00"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		api := newAPI(t)
		api.settings.On("Get", mock.Anything).Return(domain.StoreSettings{"delivery_fee": "15.00"}, nil)

		rec := api.do(http.MethodGet, "/api/admin/config", "", "X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"delivery_fee":"15.00"}`, rec.Body.String())
	})

	t.Run("put stores scalars as text", func(t *testing.T) {
		api := newAPI(t)
		want := domain.StoreSettings{"delivery_fee": "15.5", "open": "true", "greeting": "Olá"}
		api.settings.On("Update", mock.Anything, want).Return(want, nil)

		rec := api.do(http.MethodPut, "/api/admin/config", `{"delivery_fee":15.5,"open":true,"greeting":"Olá"}`,
			"X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("put rejects nested values", func(t *testing.T) {
		api := newAPI(t)

		rec := api.do(http.MethodPut, "/api/admin/config", `{"hours":{"mon":"8-18"}}`, "X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "hours", decodeError(t, rec).Details["key"])
	})

	t.Run("put rejects a non-object body", func(t *testing.T) {
		api := newAPI(t)

		rec := api.do(http.MethodPut, "/api/admin/config", `["delivery_fee"]`, "X-Admin-Token", adminToken)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
