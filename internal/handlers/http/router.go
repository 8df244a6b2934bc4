package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevin07696/order-service/internal/auth"
	"github.com/kevin07696/order-service/internal/services/ports"
	"github.com/kevin07696/order-service/pkg/middleware"
	"github.com/kevin07696/order-service/pkg/observability"
	"go.uber.org/zap"
)

// RouterConfig carries everything the router needs
type RouterConfig struct {
	Orders        ports.OrderService
	Payments      ports.PaymentService
	Settings      ports.SettingsService
	Authenticator auth.Authenticator
	RateLimiter   *middleware.RateLimiter // nil disables rate limiting
	Logger        *zap.Logger
	Development   bool
}

// NewRouter builds the public and admin API
func NewRouter(cfg RouterConfig) http.Handler {
	orders := NewOrderHandler(cfg.Orders, cfg.Logger)
	payments := NewPaymentHandler(cfg.Payments, cfg.Logger)
	admin := NewAdminHandler(cfg.Orders, cfg.Payments, cfg.Settings, cfg.Logger)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(observability.HTTPMetrics)
	r.Use(middleware.NewSecurityHeaders(cfg.Development).Middleware)

	r.Route("/api", func(r chi.Router) {
		// webhooks sit outside the limiter; providers burst retries
		r.Route("/payments/webhook/{provider}", func(r chi.Router) {
			r.Post("/", payments.Webhook)
			r.Get("/", payments.VerifyWebhook)
			r.Post("/pix", payments.Webhook)
			r.Get("/pix", payments.VerifyWebhook)
		})

		r.Group(func(r chi.Router) {
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Middleware)
			}
			r.Post("/orders", orders.Create)
			r.Get("/orders/{code}", orders.Get)
			r.Get("/orders/phone/{phone}", orders.ByPhone)
			r.Post("/payments/{code}/charge", payments.CreateCharge)
			r.Get("/payments/{code}/status", payments.Status)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.Middleware(cfg.Authenticator, cfg.Logger))
			r.Get("/orders/{id}", admin.GetOrder)
			r.Patch("/orders/{id}/status", admin.TransitionStatus)
			r.Post("/orders/{id}/refund", admin.Refund)
			r.Delete("/orders/{id}", admin.DeleteOrder)
			r.Get("/config", admin.GetSettings)
			r.Put("/config", admin.UpdateSettings)
		})
	})

	return r
}
