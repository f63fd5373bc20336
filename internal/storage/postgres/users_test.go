package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/storage"
)

var userCols = []string{"id", "name", "phone", "email", "password_hash", "created_at"}

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return New(mock), mock
}

func testUser() models.User {
	return models.User{
		ID:           uuid.New(),
		Name:         "Alice",
		Phone:        "+15550001",
		Email:        "alice@x.com",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestStore_CreateUser(t *testing.T) {
	u := testUser()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantCode  string
	}{
		{
			name: "inserts user",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(u.ID, u.Name, u.Phone, u.Email, u.PasswordHash, u.CreatedAt).
					WillReturnRows(pgxmock.NewRows(userCols).
						AddRow(u.ID, u.Name, u.Phone, u.Email, u.PasswordHash, u.CreatedAt))
			},
		},
		{
			name: "unique violation maps to already exists",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(u.ID, u.Name, u.Phone, u.Email, u.PasswordHash, u.CreatedAt).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr:  storage.ErrAlreadyExists,
			wantCode: "USER_EMAIL_TAKEN",
		},
		{
			name: "other failures are wrapped",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs(u.ID, u.Name, u.Phone, u.Email, u.PasswordHash, u.CreatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			wantCode: "USER_CREATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setupMock(mock)

			got, err := store.CreateUser(context.Background(), u)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, u, got)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, oopsErr.Code())
		})
	}
}

func TestStore_FindUserByEmail(t *testing.T) {
	u := testUser()

	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`FROM users WHERE LOWER\(email\) = LOWER\(\$1\)`).
			WithArgs("ALICE@x.com").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(u.ID, u.Name, u.Phone, u.Email, u.PasswordHash, u.CreatedAt))

		got, err := store.FindUserByEmail(context.Background(), "ALICE@x.com")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("missing", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`FROM users WHERE LOWER\(email\)`).
			WithArgs("nobody@x.com").
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err := store.FindUserByEmail(context.Background(), "nobody@x.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_UpdatePasswordHash(t *testing.T) {
	u := testUser()

	t.Run("updates", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE users SET password_hash`).
			WithArgs(u.ID, "newhash").
			WillReturnRows(pgxmock.NewRows(userCols).
				AddRow(u.ID, u.Name, u.Phone, u.Email, "newhash", u.CreatedAt))

		got, err := store.UpdatePasswordHash(context.Background(), u.ID, "newhash")
		require.NoError(t, err)
		assert.Equal(t, "newhash", got.PasswordHash)
	})

	t.Run("unknown user", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`UPDATE users SET password_hash`).
			WithArgs(u.ID, "newhash").
			WillReturnRows(pgxmock.NewRows(userCols))

		_, err := store.UpdatePasswordHash(context.Background(), u.ID, "newhash")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_Ping(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectPing().WillReturnError(errors.New("down"))
	assert.Error(t, store.Ping(context.Background()))
}

func TestStore_MigrateWithoutPool(t *testing.T) {
	store, _ := newMockStore(t)
	assert.Error(t, store.Migrate(context.Background(), MigrateUp))
}
