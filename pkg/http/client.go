package http

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// HTTPClientConfig holds HTTP client configuration
type HTTPClientConfig struct {
	// ClientCertificates are presented during the TLS handshake (mutual TLS)
	ClientCertificates []tls.Certificate

	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration

	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration
	KeepAlive             time.Duration

	MinTLSVersion uint16
}

// GatewayClientConfig returns config tuned for a payment provider API:
// a couple of hosts, moderate concurrency, slow responses tolerated.
func GatewayClientConfig() *HTTPClientConfig {
	return &HTTPClientConfig{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
		KeepAlive:             60 * time.Second,

		MinTLSVersion: tls.VersionTLS12,
	}
}

// WithClientCertificates returns a copy of cfg that presents certs
func (cfg HTTPClientConfig) WithClientCertificates(certs ...tls.Certificate) *HTTPClientConfig {
	cfg.ClientCertificates = append([]tls.Certificate(nil), certs...)
	return &cfg
}

// NewHTTPClient creates an HTTP client with the given configuration
func NewHTTPClient(cfg *HTTPClientConfig, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.DialTimeout,
		KeepAlive: cfg.KeepAlive,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,

		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		MaxConnsPerHost:     cfg.MaxConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,

		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,

		TLSClientConfig: &tls.Config{
			MinVersion:   cfg.MinTLSVersion,
			Certificates: cfg.ClientCertificates,
		},
		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
