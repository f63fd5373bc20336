package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hongminglow/jobportal-be/internal/apperr"
)

// SessionToken is a signed bearer token and its expiry.
type SessionToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenManager issues and verifies signed JWTs for authenticated users.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetime.
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// TTL reports the session lifetime.
func (t *TokenManager) TTL() time.Duration {
	return t.ttl
}

// IssueSessionToken signs a token whose subject is userID. Each token carries
// a fresh jti.
func (t *TokenManager) IssueSessionToken(userID uuid.UUID, now time.Time) (SessionToken, error) {
	expiresAt := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    t.issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return SessionToken{}, fmt.Errorf("sign session token: %w", err)
	}
	// The exp claim has second precision; report what the token really says.
	return SessionToken{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// VerifySessionToken checks signature, issuer and expiry at now and returns
// the subject. Expired tokens yield apperr.ErrTokenExpired, everything else
// apperr.ErrTokenInvalid.
func (t *TokenManager) VerifySessionToken(raw string, now time.Time) (uuid.UUID, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, apperr.ErrTokenExpired
		}
		return uuid.Nil, apperr.ErrTokenInvalid
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, apperr.ErrTokenInvalid
	}
	return id, nil
}
