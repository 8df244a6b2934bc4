// Package auth authenticates admin requests, either with one static bearer
// token or with HS256 JWTs carrying role=admin.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to an admin principal
type Authenticator interface {
	Authenticate(token string) (*Principal, error)
}

// StaticToken accepts exactly one shared token
type StaticToken struct {
	token []byte
}

// NewStaticToken creates a static token authenticator
func NewStaticToken(token string) (*StaticToken, error) {
	if token == "" {
		return nil, errors.New("admin token must not be empty")
	}
	return &StaticToken{token: []byte(token)}, nil
}

// Authenticate implements Authenticator
func (s *StaticToken) Authenticate(token string) (*Principal, error) {
	if subtle.ConstantTimeCompare([]byte(token), s.token) != 1 {
		return nil, ErrInvalidToken
	}
	return &Principal{Type: AuthTypeStaticToken}, nil
}

// Authenticate implements Authenticator
func (jm *JWTManager) Authenticate(token string) (*Principal, error) {
	claims, err := jm.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &Principal{Type: AuthTypeJWT, Subject: claims.Subject, TokenID: claims.ID}, nil
}

// New builds the authenticator for mode ("token" or "jwt")
func New(mode, staticToken, jwtSecret, issuer string) (Authenticator, error) {
	switch mode {
	case "jwt":
		return NewJWTManager(jwtSecret, issuer)
	case "token", "":
		return NewStaticToken(staticToken)
	default:
		return nil, errors.New("unsupported admin auth mode: " + mode)
	}
}

// Middleware rejects requests without a valid token with 401
func Middleware(a Authenticator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := requestToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			principal, err := a.Authenticate(token)
			if err != nil {
				logger.Warn("Admin authentication failed",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err))
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// requestToken reads the Authorization bearer token, then the
// X-Admin-Token header, then the token query parameter
func requestToken(r *http.Request) (string, bool) {
	if scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " "); found && strings.EqualFold(scheme, "Bearer") {
		token = strings.TrimSpace(token)
		return token, token != ""
	}
	if token := strings.TrimSpace(r.Header.Get("X-Admin-Token")); token != "" {
		return token, true
	}
	token := r.URL.Query().Get("token")
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":  "UNAUTHORIZED",
		"error": "authentication required",
	})
}
