package http

import (
	"crypto/tls"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_GatewayConfig(t *testing.T) {
	client := NewHTTPClient(GatewayClientConfig(), 15*time.Second)

	assert.Equal(t, 15*time.Second, client.Timeout)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 10, transport.MaxIdleConnsPerHost)
	assert.Equal(t, uint16(tls.VersionTLS12), transport.TLSClientConfig.MinVersion)
	assert.Empty(t, transport.TLSClientConfig.Certificates)
}

func TestWithClientCertificates_DoesNotMutateBase(t *testing.T) {
	base := GatewayClientConfig()
	withCert := base.WithClientCertificates(tls.Certificate{})

	assert.Len(t, withCert.ClientCertificates, 1)
	assert.Empty(t, base.ClientCertificates)

	transport := NewHTTPClient(withCert, time.Second).Transport.(*http.Transport)
	assert.Len(t, transport.TLSClientConfig.Certificates, 1)
}
