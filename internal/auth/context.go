package auth

import (
	"context"
)

type contextKey string

const principalKey contextKey = "principal"

// AuthType represents the type of authentication used
type AuthType string

const (
	AuthTypeJWT         AuthType = "jwt"
	AuthTypeStaticToken AuthType = "static_token"
	AuthTypeNone        AuthType = "none"
)

// Principal is the authenticated admin behind a request
type Principal struct {
	Type    AuthType
	Subject string
	TokenID string
}

// WithPrincipal stores p in ctx
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the authenticated principal, or an anonymous one
func GetPrincipal(ctx context.Context) *Principal {
	if p, ok := ctx.Value(principalKey).(*Principal); ok && p != nil {
		return p
	}
	return &Principal{Type: AuthTypeNone}
}

// IsAuthenticated checks if the context carries an admin principal
func IsAuthenticated(ctx context.Context) bool {
	return GetPrincipal(ctx).Type != AuthTypeNone
}

// Actor names the principal for audit notes
func Actor(ctx context.Context) string {
	p := GetPrincipal(ctx)
	switch {
	case p.Subject != "":
		return p.Subject
	case p.Type == AuthTypeStaticToken:
		return "admin"
	default:
		return "anonymous"
	}
}
