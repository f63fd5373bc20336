package auth

import (
	"context"

	"github.com/google/uuid"
)

type identityKey struct{}

// WithIdentity returns a context carrying the authenticated user id.
func WithIdentity(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, identityKey{}, userID)
}

// IdentityFrom extracts the user id stored by WithIdentity.
func IdentityFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(identityKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
