package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/hongminglow/jobportal-be/internal/apperr"
	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/storage"
)

// Credentials stores identities and their password hashes.
type Credentials struct {
	users  storage.UserStore
	hasher Hasher
	now    func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// NewCredentials builds a credential store over users.
func NewCredentials(users storage.UserStore, hasher Hasher) *Credentials {
	return &Credentials{users: users, hasher: hasher, now: time.Now}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create hashes password and inserts the identity. A concurrent or earlier
// registration of the same email yields apperr.ErrDuplicateEmail.
func (c *Credentials) Create(ctx context.Context, user models.User, password string) (models.User, error) {
	hash, err := c.hasher.Hash(password)
	if err != nil {
		return models.User{}, oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}

	user.ID = uuid.New()
	user.Email = NormalizeEmail(user.Email)
	user.PasswordHash = hash
	user.CreatedAt = c.now().UTC()

	created, err := c.users.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrAlreadyExists) {
		return models.User{}, apperr.ErrDuplicateEmail
	}
	if err != nil {
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail returns the identity for email, or ok=false when none exists.
func (c *Credentials) FindByEmail(ctx context.Context, email string) (models.User, bool, error) {
	user, err := c.users.FindUserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return user, true, nil
}

// FindByID returns the identity for id.
func (c *Credentials) FindByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := c.users.FindUserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, apperr.ErrNotFound
	}
	return user, err
}

// VerifyPassword reports whether password matches the stored hash.
func (c *Credentials) VerifyPassword(user models.User, password string) (bool, error) {
	if user.PasswordHash == "" {
		return false, nil
	}
	return c.hasher.Compare(user.PasswordHash, password)
}

// BurnCompare runs one hash comparison against a throwaway hash so that an
// unknown email costs the same as a wrong password.
func (c *Credentials) BurnCompare(password string) {
	c.dummyOnce.Do(func() {
		c.dummyHash, _ = c.hasher.Hash("jobportal-placeholder-password")
	})
	if c.dummyHash != "" {
		_, _ = c.hasher.Compare(c.dummyHash, password)
	}
}

// UpdatePassword replaces the hash of the identity with one for password.
func (c *Credentials) UpdatePassword(ctx context.Context, userID uuid.UUID, password string) (models.User, error) {
	hash, err := c.hasher.Hash(password)
	if err != nil {
		return models.User{}, oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	user, err := c.users.UpdatePasswordHash(ctx, userID, hash)
	if errors.Is(err, storage.ErrNotFound) {
		return models.User{}, apperr.ErrNotFound
	}
	return user, err
}
