package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/storage"
)

const resetColumns = `id, user_id, token_hash, expires_at, created_at, used_at`

// CreateReset stores a new reset grant and retires the user's other
// outstanding grants in the same transaction. Locking the user row first
// serializes concurrent issues for one user, so at most one grant stays live.
func (s *Store) CreateReset(ctx context.Context, reset models.PasswordReset) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return oops.Code("RESET_CREATE_FAILED").With("operation", "begin").Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, reset.UserID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return oops.Code("RESET_USER_NOT_FOUND").
			With("user_id", reset.UserID.String()).
			Wrap(storage.ErrNotFound)
	}
	if err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "lock user").
			With("user_id", reset.UserID.String()).
			Wrap(err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE password_resets SET used_at = $2
		WHERE user_id = $1 AND used_at IS NULL
	`, reset.UserID, reset.CreatedAt); err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "retire outstanding grants").
			With("user_id", reset.UserID.String()).
			Wrap(err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO password_resets (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, reset.ID, reset.UserID, reset.TokenHash, reset.ExpiresAt, reset.CreatedAt); err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "insert").
			With("user_id", reset.UserID.String()).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return oops.Code("RESET_CREATE_FAILED").
			With("operation", "commit").
			With("user_id", reset.UserID.String()).
			Wrap(err)
	}
	return nil
}

// ConsumeReset flips used_at in a single conditional UPDATE, so two
// concurrent callers cannot both succeed. The follow-up SELECT only explains
// a refusal.
func (s *Store) ConsumeReset(ctx context.Context, tokenHash string, now time.Time) (models.PasswordReset, bool, error) {
	const query = `
		UPDATE password_resets SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING ` + resetColumns

	reset, err := scanReset(s.db.QueryRow(ctx, query, tokenHash, now))
	if err == nil {
		return reset, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return models.PasswordReset{}, false, oops.Code("RESET_CONSUME_FAILED").
			With("operation", "conditional update").
			Wrap(err)
	}

	reset, err = s.FindReset(ctx, tokenHash)
	if err != nil {
		return models.PasswordReset{}, false, err
	}
	return reset, false, nil
}

// FindReset looks a grant up by token hash.
func (s *Store) FindReset(ctx context.Context, tokenHash string) (models.PasswordReset, error) {
	const query = `SELECT ` + resetColumns + ` FROM password_resets WHERE token_hash = $1`

	reset, err := scanReset(s.db.QueryRow(ctx, query, tokenHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.PasswordReset{}, oops.Code("RESET_NOT_FOUND").Wrap(storage.ErrNotFound)
	}
	if err != nil {
		return models.PasswordReset{}, oops.Code("RESET_GET_FAILED").
			With("operation", "get reset by token hash").
			Wrap(err)
	}
	return reset, nil
}

// InvalidateUserResets marks all outstanding grants of a user as used.
func (s *Store) InvalidateUserResets(ctx context.Context, userID uuid.UUID, now time.Time) error {
	_, err := s.db.Exec(ctx, `
		UPDATE password_resets SET used_at = $2
		WHERE user_id = $1 AND used_at IS NULL
	`, userID, now)
	if err != nil {
		return oops.Code("RESET_INVALIDATE_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return nil
}

// DeleteExpiredResets removes grants whose expiry is not after now.
func (s *Store) DeleteExpiredResets(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM password_resets WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, oops.Code("RESET_CLEANUP_FAILED").Wrap(err)
	}
	return tag.RowsAffected(), nil
}

func scanReset(row pgx.Row) (models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := row.Scan(&reset.ID, &reset.UserID, &reset.TokenHash, &reset.ExpiresAt, &reset.CreatedAt, &reset.UsedAt); err != nil {
		return models.PasswordReset{}, err
	}
	return reset, nil
}
