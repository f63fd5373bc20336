package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/storage"
)

const applicationColumns = `id, job_id, applicant_id, name, email, phone, cover_letter, resume_url, created_at`

// CreateApplication records an application. A second application by the same
// applicant for the same job hits the (job_id, applicant_id) constraint.
func (s *Store) CreateApplication(ctx context.Context, app models.Application) (models.Application, error) {
	const query = `
		INSERT INTO applications (id, job_id, applicant_id, name, email, phone, cover_letter, resume_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + applicationColumns

	row := s.db.QueryRow(ctx, query,
		app.ID, app.JobID, app.ApplicantID, app.Name, app.Email, app.Phone, app.CoverLetter, app.ResumeURL, app.CreatedAt)

	var created models.Application
	err := row.Scan(&created.ID, &created.JobID, &created.ApplicantID, &created.Name, &created.Email,
		&created.Phone, &created.CoverLetter, &created.ResumeURL, &created.CreatedAt)
	switch {
	case err == nil:
		return created, nil
	case isUniqueViolation(err):
		return models.Application{}, oops.Code("APPLICATION_DUPLICATE").
			With("job_id", app.JobID.String()).
			Wrap(storage.ErrAlreadyExists)
	case isForeignKeyViolation(err):
		return models.Application{}, oops.Code("APPLICATION_JOB_MISSING").
			With("job_id", app.JobID.String()).
			Wrap(storage.ErrNotFound)
	default:
		return models.Application{}, oops.Code("APPLICATION_CREATE_FAILED").
			With("job_id", app.JobID.String()).
			Wrap(err)
	}
}

// ListApplications returns the applications for a job, oldest first.
func (s *Store) ListApplications(ctx context.Context, jobID uuid.UUID) ([]models.Application, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE job_id = $1 ORDER BY created_at, id`, jobID)
	if err != nil {
		return nil, oops.Code("APPLICATION_LIST_FAILED").With("job_id", jobID.String()).Wrap(err)
	}
	defer rows.Close()

	apps := make([]models.Application, 0)
	for rows.Next() {
		var a models.Application
		if err := rows.Scan(&a.ID, &a.JobID, &a.ApplicantID, &a.Name, &a.Email,
			&a.Phone, &a.CoverLetter, &a.ResumeURL, &a.CreatedAt); err != nil {
			return nil, oops.Code("APPLICATION_LIST_FAILED").With("operation", "scan").Wrap(err)
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("APPLICATION_LIST_FAILED").With("operation", "iterate").Wrap(err)
	}
	return apps, nil
}
