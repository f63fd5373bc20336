package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/jobportal-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore persists identities. CreateUser must rely on a uniqueness
// constraint on the normalized email, not a prior lookup.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (models.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) (models.User, error)
}

// ResetStore persists password-reset grants keyed by token hash.
type ResetStore interface {
	// CreateReset stores reset and marks every other outstanding grant of
	// reset.UserID used at reset.CreatedAt, atomically with respect to
	// concurrent CreateReset calls for the same user.
	CreateReset(ctx context.Context, reset models.PasswordReset) error

	// ConsumeReset marks the grant used if and only if it is unused and not
	// expired at now, in one atomic step. When consumed is false the returned
	// record describes why. Unknown hashes yield ErrNotFound.
	ConsumeReset(ctx context.Context, tokenHash string, now time.Time) (reset models.PasswordReset, consumed bool, err error)

	// FindReset looks a grant up without consuming it.
	FindReset(ctx context.Context, tokenHash string) (models.PasswordReset, error)

	// InvalidateUserResets marks every outstanding grant for the user as used.
	InvalidateUserResets(ctx context.Context, userID uuid.UUID, now time.Time) error

	// DeleteExpiredResets removes grants that expired before now.
	DeleteExpiredResets(ctx context.Context, now time.Time) (int64, error)
}

// JobStore persists job postings. Mutations are conditioned on the owner id so
// a concurrent ownership check cannot be bypassed.
type JobStore interface {
	CreateJob(ctx context.Context, job models.Job) (models.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (models.Job, error)
	ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error)
	UpdateJob(ctx context.Context, job models.Job) (models.Job, error)
	DeleteJob(ctx context.Context, id, ownerID uuid.UUID) error
}

// ApplicationStore persists job applications; one per applicant per job.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, app models.Application) (models.Application, error)
	ListApplications(ctx context.Context, jobID uuid.UUID) ([]models.Application, error)
}

// Store bundles every repository a backend provides.
type Store interface {
	UserStore
	ResetStore
	JobStore
	ApplicationStore
	Ping(ctx context.Context) error
	Close()
}
