// Package jobs implements job postings and applications with owner-only
// mutation.
package jobs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hongminglow/jobportal-be/internal/apperr"
	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/storage"
	"github.com/hongminglow/jobportal-be/internal/validate"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// ListCache caches public listing pages. GetJobs reports the key the page
// belongs under; a miss is filled by passing that same key to SetJobs.
type ListCache interface {
	GetJobs(ctx context.Context, filter models.JobFilter) (jobs []models.Job, key string, hit bool)
	SetJobs(ctx context.Context, key string, jobs []models.Job)
	InvalidateJobs(ctx context.Context)
}

type noCache struct{}

func (noCache) GetJobs(context.Context, models.JobFilter) ([]models.Job, string, bool) {
	return nil, "", false
}
func (noCache) SetJobs(context.Context, string, []models.Job) {}
func (noCache) InvalidateJobs(context.Context) {}

// Page is a listing result with the bounds that were applied to it.
type Page struct {
	Jobs   []models.Job
	Limit  int
	Offset int
}

func pageOf(jobs []models.Job, f models.JobFilter) Page {
	return Page{Jobs: jobs, Limit: f.Limit, Offset: f.Offset}
}

// Store is the persistence the service needs.
type Store interface {
	storage.JobStore
	storage.ApplicationStore
}

// Service owns job CRUD and applications.
type Service struct {
	store    Store
	cache    ListCache
	validate *validate.Validator
	logger   zerolog.Logger
	now      func() time.Time
}

// NewService builds the service. cache may be nil.
func NewService(store Store, cache ListCache, logger zerolog.Logger) *Service {
	if cache == nil {
		cache = noCache{}
	}
	return &Service{
		store:    store,
		cache:    cache,
		validate: validate.New(),
		logger:   logger.With().Str("component", "jobs").Logger(),
		now:      time.Now,
	}
}

// Create stores a posting owned by ownerID. The owner never comes from the
// client payload.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, fields models.JobFields) (models.Job, error) {
	fields = clean(fields)
	if err := s.validate.Struct(fields); err != nil {
		return models.Job{}, err
	}

	now := s.now().UTC()
	job := models.Job{ID: uuid.New(), OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
	job.Apply(fields)

	created, err := s.store.CreateJob(ctx, job)
	if err != nil {
		return models.Job{}, err
	}
	s.cache.InvalidateJobs(ctx)
	s.logger.Info().Str("job_id", created.ID.String()).Str("owner_id", ownerID.String()).Msg("job created")
	return created, nil
}

// Get returns a single posting.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.Job, error) {
	job, err := s.store.GetJob(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Job{}, apperr.ErrNotFound
	}
	return job, err
}

// Update replaces the editable fields of a job owned by requesterID.
func (s *Service) Update(ctx context.Context, id, requesterID uuid.UUID, fields models.JobFields) (models.Job, error) {
	fields = clean(fields)
	if err := s.validate.Struct(fields); err != nil {
		return models.Job{}, err
	}

	job, err := s.owned(ctx, id, requesterID)
	if err != nil {
		return models.Job{}, err
	}
	job.Apply(fields)
	job.UpdatedAt = s.now().UTC()

	// The store re-checks ownership in the UPDATE itself.
	updated, err := s.store.UpdateJob(ctx, job)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Job{}, s.classify(ctx, id)
	}
	if err != nil {
		return models.Job{}, err
	}
	s.cache.InvalidateJobs(ctx)
	return updated, nil
}

// Delete removes a job owned by requesterID.
func (s *Service) Delete(ctx context.Context, id, requesterID uuid.UUID) error {
	if _, err := s.owned(ctx, id, requesterID); err != nil {
		return err
	}
	err := s.store.DeleteJob(ctx, id, requesterID)
	if errors.Is(err, storage.ErrNotFound) {
		return s.classify(ctx, id)
	}
	if err != nil {
		return err
	}
	s.cache.InvalidateJobs(ctx)
	s.logger.Info().Str("job_id", id.String()).Msg("job deleted")
	return nil
}

// List returns public postings matching filter.
func (s *Service) List(ctx context.Context, filter models.JobFilter) (Page, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return Page{}, err
	}
	filter.OwnerID = nil

	cached, key, ok := s.cache.GetJobs(ctx, filter)
	if ok {
		return pageOf(cached, filter), nil
	}
	jobs, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	s.cache.SetJobs(ctx, key, jobs)
	return pageOf(jobs, filter), nil
}

// Mine lists the postings owned by ownerID.
func (s *Service) Mine(ctx context.Context, ownerID uuid.UUID, filter models.JobFilter) (Page, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return Page{}, err
	}
	filter.OwnerID = &ownerID
	jobs, err := s.store.ListJobs(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	return pageOf(jobs, filter), nil
}

// Apply records an application by applicantID to job id.
func (s *Service) Apply(ctx context.Context, id, applicantID uuid.UUID, fields models.ApplicationFields) (models.Application, error) {
	fields.Name = strings.TrimSpace(fields.Name)
	fields.Email = strings.TrimSpace(fields.Email)
	fields.Phone = strings.TrimSpace(fields.Phone)
	fields.ResumeURL = strings.TrimSpace(fields.ResumeURL)
	if err := s.validate.Struct(fields); err != nil {
		return models.Application{}, err
	}

	app := models.Application{
		ID:          uuid.New(),
		JobID:       id,
		ApplicantID: applicantID,
		Name:        fields.Name,
		Email:       fields.Email,
		Phone:       fields.Phone,
		CoverLetter: fields.CoverLetter,
		ResumeURL:   fields.ResumeURL,
		CreatedAt:   s.now().UTC(),
	}
	created, err := s.store.CreateApplication(ctx, app)
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		return models.Application{}, apperr.ErrAlreadyApplied
	case errors.Is(err, storage.ErrNotFound):
		return models.Application{}, apperr.ErrNotFound
	case err != nil:
		return models.Application{}, err
	}
	return created, nil
}

// Applications lists applications to a job owned by requesterID.
func (s *Service) Applications(ctx context.Context, id, requesterID uuid.UUID) ([]models.Application, error) {
	if _, err := s.owned(ctx, id, requesterID); err != nil {
		return nil, err
	}
	return s.store.ListApplications(ctx, id)
}

func (s *Service) owned(ctx context.Context, id, requesterID uuid.UUID) (models.Job, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return models.Job{}, err
	}
	if job.OwnerID != requesterID {
		return models.Job{}, apperr.ErrForbidden
	}
	return job, nil
}

// classify explains a guarded mutation that matched no row: the job either
// vanished or changed hands in between.
func (s *Service) classify(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return apperr.ErrForbidden
}

func clean(f models.JobFields) models.JobFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Company = strings.TrimSpace(f.Company)
	f.Description = strings.TrimSpace(f.Description)
	f.Location = strings.TrimSpace(f.Location)
	f.Category = strings.TrimSpace(f.Category)
	f.Salary = strings.TrimSpace(f.Salary)
	f.ExperienceLevel = strings.TrimSpace(f.ExperienceLevel)
	skills := make([]string, 0, len(f.RequiredSkills))
	for _, sk := range f.RequiredSkills {
		if sk = strings.TrimSpace(sk); sk != "" {
			skills = append(skills, sk)
		}
	}
	f.RequiredSkills = skills
	return f
}

func normalizeFilter(f models.JobFilter) (models.JobFilter, error) {
	switch {
	case f.Limit < 0:
		return f, apperr.Validation("limit must not be negative")
	case f.Limit == 0:
		f.Limit = DefaultLimit
	case f.Limit > MaxLimit:
		f.Limit = MaxLimit
	}
	if f.Offset < 0 {
		return f, apperr.Validation("offset must not be negative")
	}
	f.Category = strings.TrimSpace(f.Category)
	f.Location = strings.TrimSpace(f.Location)
	f.ExperienceLevel = strings.TrimSpace(f.ExperienceLevel)
	return f, nil
}
