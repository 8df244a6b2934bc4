// Package efi implements the payment gateway on top of the Efi Pay APIs:
// the PIX API (mutual TLS) for instant payments and the charges API for
// boletos and credit cards.
package efi

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kevin07696/order-service/internal/adapters/gateway"
	"github.com/kevin07696/order-service/internal/domain"
	"github.com/kevin07696/order-service/internal/domain/ports"
	pkghttp "github.com/kevin07696/order-service/pkg/http"
	"go.uber.org/zap"
)

// ProviderName identifies Efi in logs, metrics and webhook routes
const ProviderName = "efi"

const (
	chargesProductionURL = "https://cobrancas.api.efipay.com.br"
	chargesSandboxURL    = "https://cobrancas-h.api.efipay.com.br"
	pixProductionURL     = "https://pix.api.efipay.com.br"
	pixSandboxURL        = "https://pix-h.api.efipay.com.br"

	defaultPixExpiration = time.Hour
	defaultTimeout       = 15 * time.Second
	defaultCustomerEmail = "cliente@araquaricestas.com"

	maxResponseBytes = 1 << 20
)

var (
	_ ports.PaymentGateway = (*Client)(nil)
	_ ports.WebhookDecoder = (*Client)(nil)
)

// Config holds Efi credentials and endpoints
type Config struct {
	// Certificate is the PIX API client certificate. Nil disables mutual TLS.
	Certificate    *tls.Certificate
	ClientID       string
	ClientSecret   string
	PixKey         string
	ChargesBaseURL string // overrides the sandbox/production default
	PixBaseURL     string // overrides the sandbox/production default
	// FallbackEmail is sent for card charges when the customer has none
	FallbackEmail string
	PixExpiration time.Duration
	Timeout       time.Duration
	Sandbox       bool
}

// Configured reports whether credentials are present
func (c Config) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Client talks to both Efi APIs. Each API gets its own HTTP client and
// its own cached access token.
type Client struct {
	charges       *endpoint
	pix           *endpoint
	logger        *zap.Logger
	newRefundID   func() string
	pixKey        string
	fallbackEmail string
	pixExpiration time.Duration
}

// NewClient creates an Efi client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	chargesURL, pixURL := chargesProductionURL, pixProductionURL
	if cfg.Sandbox {
		chargesURL, pixURL = chargesSandboxURL, pixSandboxURL
	}
	if cfg.ChargesBaseURL != "" {
		chargesURL = cfg.ChargesBaseURL
	}
	if cfg.PixBaseURL != "" {
		pixURL = cfg.PixBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PixExpiration <= 0 {
		cfg.PixExpiration = defaultPixExpiration
	}
	if cfg.FallbackEmail == "" {
		cfg.FallbackEmail = defaultCustomerEmail
	}

	httpCfg := pkghttp.GatewayClientConfig()
	chargesHTTP := pkghttp.NewHTTPClient(httpCfg, cfg.Timeout)
	pixHTTPCfg := httpCfg
	if cfg.Certificate != nil {
		pixHTTPCfg = httpCfg.WithClientCertificates(*cfg.Certificate)
	}
	pixHTTP := pkghttp.NewHTTPClient(pixHTTPCfg, cfg.Timeout)

	return &Client{
		charges: newEndpoint("charges", chargesURL, chargesHTTP,
			newTokenSource(chargesHTTP, chargesURL+"/v1/authorize", cfg.ClientID, cfg.ClientSecret), logger),
		pix: newEndpoint("pix", pixURL, pixHTTP,
			newTokenSource(pixHTTP, pixURL+"/oauth/token", cfg.ClientID, cfg.ClientSecret), logger),
		logger:        logger,
		newRefundID:   func() string { return strings.ReplaceAll(uuid.NewString(), "-", "") },
		pixKey:        cfg.PixKey,
		fallbackEmail: cfg.FallbackEmail,
		pixExpiration: cfg.PixExpiration,
	}
}

// Name implements ports.PaymentGateway
func (c *Client) Name() string {
	return ProviderName
}

// endpoint is one Efi API: base URL, transport and token cache
type endpoint struct {
	client  *http.Client
	tokens  *tokenCache
	logger  *zap.Logger
	name    string
	baseURL string
}

func newEndpoint(name, baseURL string, client *http.Client, tokens *tokenSource, logger *zap.Logger) *endpoint {
	return &endpoint{
		client:  client,
		tokens:  newTokenCache(tokens),
		logger:  logger,
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// do sends a JSON request and decodes the JSON answer into out.
// It returns the raw response body for audit storage.
func (e *endpoint) do(ctx context.Context, method, path string, in, out interface{}) ([]byte, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	token, err := e.tokens.Token(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrorCodeGatewayUnavailable, "efi authentication failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	token.SetAuthHeader(req)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("efi %s request failed: %w", e.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	e.logger.Debug("Efi API call",
		zap.String("api", e.name),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode >= 400 {
		return raw, gateway.StatusError(ProviderName, resp.StatusCode, errorMessage(raw))
	}
	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, domain.WrapError(domain.ErrorCodeGatewayUnavailable, "efi returned an unreadable response", err)
		}
	}
	return raw, nil
}

// errorMessage pulls a human readable message out of either API's error body
func errorMessage(raw []byte) string {
	var body struct {
		Mensagem         string          `json:"mensagem"`
		Message          string          `json:"message"`
		Error            string          `json:"error"`
		ErrorDescription json.RawMessage `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	switch {
	case body.Mensagem != "":
		return body.Mensagem
	case body.Message != "":
		return body.Message
	}
	// error_description is a string on auth errors and an object on validation errors
	var desc string
	if err := json.Unmarshal(body.ErrorDescription, &desc); err == nil && desc != "" {
		return desc
	}
	var detail struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	}
	if err := json.Unmarshal(body.ErrorDescription, &detail); err == nil && detail.Message != "" {
		if detail.Property != "" {
			return detail.Property + ": " + detail.Message
		}
		return detail.Message
	}
	return body.Error
}
