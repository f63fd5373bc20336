package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordReset is a persisted single-use reset grant. Only the SHA-256 of the
// token value is stored.
type PasswordReset struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UsedAt    *time.Time
}

// Expired reports whether the grant is past its expiry at now.
func (r PasswordReset) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Used reports whether the grant has already been consumed or invalidated.
func (r PasswordReset) Used() bool {
	return r.UsedAt != nil
}
