package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/storage"
)

const jobColumns = `id, owner_id, title, company, description, location, category, salary,
	required_skills, experience_level, created_at, updated_at`

// CreateJob inserts a job posting.
func (s *Store) CreateJob(ctx context.Context, job models.Job) (models.Job, error) {
	const query = `
		INSERT INTO jobs (id, owner_id, title, company, description, location, category, salary,
			required_skills, experience_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + jobColumns

	row := s.db.QueryRow(ctx, query,
		job.ID,
		job.OwnerID,
		job.Title,
		job.Company,
		job.Description,
		job.Location,
		job.Category,
		job.Salary,
		skills(job.RequiredSkills),
		job.ExperienceLevel,
		job.CreatedAt,
		job.UpdatedAt,
	)
	created, err := scanJob(row)
	if err != nil {
		return models.Job{}, oops.Code("JOB_CREATE_FAILED").
			With("owner_id", job.OwnerID.String()).
			Wrap(err)
	}
	return created, nil
}

// GetJob fetches a job by id.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (models.Job, error) {
	const query = `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`

	job, err := scanJob(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Job{}, oops.Code("JOB_NOT_FOUND").
			With("id", id.String()).
			Wrap(storage.ErrNotFound)
	}
	if err != nil {
		return models.Job{}, oops.Code("JOB_GET_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	return job, nil
}

// ListJobs returns jobs newest first, narrowed by the exact-match filters.
func (s *Store) ListJobs(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.OwnerID != nil {
		add("owner_id = $%d", *filter.OwnerID)
	}
	if filter.Category != "" {
		add("LOWER(category) = LOWER($%d)", filter.Category)
	}
	if filter.Location != "" {
		add("LOWER(location) = LOWER($%d)", filter.Location)
	}
	if filter.ExperienceLevel != "" {
		add("LOWER(experience_level) = LOWER($%d)", filter.ExperienceLevel)
	}

	query := `SELECT ` + jobColumns + ` FROM jobs`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("JOB_LIST_FAILED").With("operation", "query jobs").Wrap(err)
	}
	defer rows.Close()

	jobs := make([]models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, oops.Code("JOB_LIST_FAILED").With("operation", "scan job row").Wrap(err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("JOB_LIST_FAILED").With("operation", "iterate jobs").Wrap(err)
	}
	return jobs, nil
}

// UpdateJob rewrites the editable columns. The row must still belong to
// job.OwnerID, otherwise ErrNotFound is returned.
func (s *Store) UpdateJob(ctx context.Context, job models.Job) (models.Job, error) {
	const query = `
		UPDATE jobs SET
			title = $3,
			company = $4,
			description = $5,
			location = $6,
			category = $7,
			salary = $8,
			required_skills = $9,
			experience_level = $10,
			updated_at = $11
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + jobColumns

	row := s.db.QueryRow(ctx, query,
		job.ID,
		job.OwnerID,
		job.Title,
		job.Company,
		job.Description,
		job.Location,
		job.Category,
		job.Salary,
		skills(job.RequiredSkills),
		job.ExperienceLevel,
		job.UpdatedAt,
	)
	updated, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Job{}, oops.Code("JOB_NOT_FOUND").
			With("id", job.ID.String()).
			Wrap(storage.ErrNotFound)
	}
	if err != nil {
		return models.Job{}, oops.Code("JOB_UPDATE_FAILED").
			With("id", job.ID.String()).
			Wrap(err)
	}
	return updated, nil
}

// DeleteJob removes a job owned by ownerID.
func (s *Store) DeleteJob(ctx context.Context, id, ownerID uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM jobs WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return oops.Code("JOB_DELETE_FAILED").
			With("id", id.String()).
			Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return oops.Code("JOB_NOT_FOUND").
			With("id", id.String()).
			Wrap(storage.ErrNotFound)
	}
	return nil
}

func scanJob(row pgx.Row) (models.Job, error) {
	var job models.Job
	err := row.Scan(
		&job.ID,
		&job.OwnerID,
		&job.Title,
		&job.Company,
		&job.Description,
		&job.Location,
		&job.Category,
		&job.Salary,
		&job.RequiredSkills,
		&job.ExperienceLevel,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return models.Job{}, err
	}
	return job, nil
}

func skills(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
