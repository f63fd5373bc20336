package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/jobportal-be/internal/apperr"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "jobportal-test", 24*time.Hour)
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		id := uuid.New()
		tok, err := tm.IssueSessionToken(id, now)
		require.NoError(t, err)
		assert.Equal(t, now.Add(24*time.Hour), tok.ExpiresAt)

		got, err := tm.VerifySessionToken(tok.Value, now.Add(23*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestTokenManager_DistinctTokensSameUser(t *testing.T) {
	tm := NewTokenManager("secret", "jobportal-test", time.Hour)
	now := time.Now()
	id := uuid.New()

	a, err := tm.IssueSessionToken(id, now)
	require.NoError(t, err)
	b, err := tm.IssueSessionToken(id, now)
	require.NoError(t, err)
	assert.NotEqual(t, a.Value, b.Value)
}

func TestTokenManager_Rejections(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	tm := NewTokenManager("secret", "jobportal-test", time.Hour)
	valid, err := tm.IssueSessionToken(uuid.New(), now)
	require.NoError(t, err)

	otherSecret, err := NewTokenManager("other", "jobportal-test", time.Hour).IssueSessionToken(uuid.New(), now)
	require.NoError(t, err)
	otherIssuer, err := NewTokenManager("secret", "someone-else", time.Hour).IssueSessionToken(uuid.New(), now)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    "jobportal-test",
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "jobportal-test",
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		at    time.Time
		want  error
	}{
		{name: "expired", token: valid.Value, at: now.Add(2 * time.Hour), want: apperr.ErrTokenExpired},
		{name: "at exact expiry", token: valid.Value, at: now.Add(time.Hour), want: apperr.ErrTokenExpired},
		{name: "tampered", token: valid.Value + "x", at: now, want: apperr.ErrTokenInvalid},
		{name: "garbage", token: "not.a.jwt", at: now, want: apperr.ErrTokenInvalid},
		{name: "empty", token: "", at: now, want: apperr.ErrTokenInvalid},
		{name: "wrong secret", token: otherSecret.Value, at: now, want: apperr.ErrTokenInvalid},
		{name: "wrong issuer", token: otherIssuer.Value, at: now, want: apperr.ErrTokenInvalid},
		{name: "alg none", token: noneAlg, at: now, want: apperr.ErrTokenInvalid},
		{name: "subject not a uuid", token: badSubject, at: now, want: apperr.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.VerifySessionToken(tt.token, tt.at)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
