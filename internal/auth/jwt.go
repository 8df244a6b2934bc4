package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin is the only role allowed on admin routes
const RoleAdmin = "admin"

// ErrInvalidToken is returned for any token that fails validation
var ErrInvalidToken = errors.New("invalid token")

// JWTClaims represents the claims of an admin token
type JWTClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTManager issues and validates HS256 admin tokens
type JWTManager struct {
	now    func() time.Time
	secret []byte
	issuer string
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret, issuer string) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, errors.New("jwt secret must be at least 32 bytes")
	}
	return &JWTManager{
		now:    time.Now,
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// GenerateToken issues an admin token for subject valid for ttl
func (jm *JWTManager) GenerateToken(subject string, ttl time.Duration) (string, error) {
	now := jm.now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    jm.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Role: RoleAdmin,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jm.secret)
}

// ValidateToken checks signature, issuer, expiry and the admin role
func (jm *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return jm.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(jm.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(jm.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Role != RoleAdmin {
		return nil, fmt.Errorf("%w: role %q is not allowed", ErrInvalidToken, claims.Role)
	}
	return claims, nil
}
