package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/hongminglow/jobportal-be/internal/apperr"
	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/storage"
)

// resetTokenBytes is the entropy of a reset token: 256 bits.
const resetTokenBytes = 32

// ResetToken is a freshly issued reset grant. Value is only ever held in
// memory and handed to the notifier; the store keeps its SHA-256.
type ResetToken struct {
	Value     string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// ResetTokens issues and redeems single-use password-reset grants.
type ResetTokens struct {
	store storage.ResetStore
	ttl   time.Duration
}

// NewResetTokens builds the reset-token service.
func NewResetTokens(store storage.ResetStore, ttl time.Duration) *ResetTokens {
	return &ResetTokens{store: store, ttl: ttl}
}

// IssueResetToken stores a grant for userID expiring ttl after now. The store
// retires any outstanding grant for the same user in the same step.
func (r *ResetTokens) IssueResetToken(ctx context.Context, userID uuid.UUID, now time.Time) (ResetToken, error) {
	value, err := generateResetValue()
	if err != nil {
		return ResetToken{}, oops.Code("RESET_TOKEN_GENERATE_FAILED").Wrap(err)
	}

	grant := models.PasswordReset{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hashResetValue(value),
		ExpiresAt: now.Add(r.ttl),
		CreatedAt: now,
	}
	if err := r.store.CreateReset(ctx, grant); err != nil {
		return ResetToken{}, err
	}
	return ResetToken{Value: value, UserID: userID, ExpiresAt: grant.ExpiresAt}, nil
}

// ConsumeResetToken atomically marks the grant for value used and returns its
// user. Refusals are classified with expiry checked first.
func (r *ResetTokens) ConsumeResetToken(ctx context.Context, value string, now time.Time) (uuid.UUID, error) {
	if !wellFormedResetValue(value) {
		return uuid.Nil, apperr.ErrTokenInvalid
	}

	grant, consumed, err := r.store.ConsumeReset(ctx, hashResetValue(value), now)
	if errors.Is(err, storage.ErrNotFound) {
		return uuid.Nil, apperr.ErrTokenInvalid
	}
	if err != nil {
		return uuid.Nil, err
	}
	if !consumed {
		return uuid.Nil, refusal(grant, now)
	}
	return grant.UserID, nil
}

// CheckResetToken reports whether value could be redeemed at now without
// consuming it.
func (r *ResetTokens) CheckResetToken(ctx context.Context, value string, now time.Time) error {
	if !wellFormedResetValue(value) {
		return apperr.ErrTokenInvalid
	}

	grant, err := r.store.FindReset(ctx, hashResetValue(value))
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.ErrTokenInvalid
	}
	if err != nil {
		return err
	}
	if grant.Expired(now) || grant.Used() {
		return refusal(grant, now)
	}
	return nil
}

func refusal(grant models.PasswordReset, now time.Time) error {
	if grant.Expired(now) {
		return apperr.ErrTokenExpired
	}
	if grant.Used() {
		return apperr.ErrTokenAlreadyUsed
	}
	return apperr.ErrTokenInvalid
}

func generateResetValue() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashResetValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

func wellFormedResetValue(value string) bool {
	if len(value) != resetTokenBytes*2 {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}
