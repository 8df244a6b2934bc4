package efi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// tokens are refreshed this long before Efi says they expire
const tokenRefreshMargin = 60 * time.Second

// tokenSource exchanges client credentials for an access token.
// Efi expects the grant as a JSON body, not the form encoding
// golang.org/x/oauth2/clientcredentials sends.
type tokenSource struct {
	client       *http.Client
	now          func() time.Time
	url          string
	clientID     string
	clientSecret string
}

func newTokenSource(client *http.Client, url, clientID, clientSecret string) *tokenSource {
	return &tokenSource{
		client:       client,
		now:          time.Now,
		url:          url,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// ctxTokenSource binds a fetch to the context of the request that needs it
type ctxTokenSource struct {
	ctx    context.Context
	source *tokenSource
}

// Token implements oauth2.TokenSource
func (s ctxTokenSource) Token() (*oauth2.Token, error) {
	return s.source.fetch(s.ctx)
}

// tokenCache reuses a token until tokenRefreshMargin before expiry. A
// refresh runs under the caller's context, so a cancelled request aborts it.
type tokenCache struct {
	mu     sync.Mutex
	source *tokenSource
	token  *oauth2.Token
}

func newTokenCache(source *tokenSource) *tokenCache {
	return &tokenCache{source: source}
}

// Token returns the cached token or fetches a new one with ctx
func (c *tokenCache) Token(ctx context.Context) (*oauth2.Token, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	token, err := oauth2.ReuseTokenSourceWithExpiry(c.token, ctxTokenSource{ctx: ctx, source: c.source}, tokenRefreshMargin).Token()
	if err != nil {
		return nil, err
	}
	c.token = token
	return token, nil
}

func (s *tokenSource) fetch(ctx context.Context) (*oauth2.Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url,
		strings.NewReader(`{"grant_type":"client_credentials"}`))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("token request rejected with status %d: %s", resp.StatusCode, errorMessage(raw))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("token response carried no access token")
	}

	token := &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
	}
	if payload.ExpiresIn > 0 {
		token.Expiry = s.now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return token, nil
}
