// Package memory is a mutex-guarded storage.Store for local runs and tests.
// It enforces the same uniqueness and conditional-consume rules as Postgres.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type appKey struct {
	job       uuid.UUID
	applicant uuid.UUID
}

// Store keeps every record in maps under one lock.
type Store struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]models.User
	emails       map[string]uuid.UUID
	resets       map[string]models.PasswordReset
	jobs         map[uuid.UUID]models.Job
	applications map[uuid.UUID]models.Application
	applied      map[appKey]uuid.UUID
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:        make(map[uuid.UUID]models.User),
		emails:       make(map[string]uuid.UUID),
		resets:       make(map[string]models.PasswordReset),
		jobs:         make(map[uuid.UUID]models.Job),
		applications: make(map[uuid.UUID]models.Application),
		applied:      make(map[appKey]uuid.UUID),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	key := strings.ToLower(user.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.emails[key]; taken {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.users[user.ID] = user
	s.emails[key] = user.ID
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) FindUserByID(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	user.PasswordHash = hash
	s.users[id] = user
	return user, nil
}

func (s *Store) CreateReset(_ context.Context, reset models.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.resets[reset.TokenHash]; exists {
		return storage.ErrAlreadyExists
	}
	s.retireResetsLocked(reset.UserID, reset.CreatedAt)
	s.resets[reset.TokenHash] = reset
	return nil
}

func (s *Store) ConsumeReset(_ context.Context, tokenHash string, now time.Time) (models.PasswordReset, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reset, ok := s.resets[tokenHash]
	if !ok {
		return models.PasswordReset{}, false, storage.ErrNotFound
	}
	if reset.Used() || reset.Expired(now) {
		return reset, false, nil
	}
	used := now
	reset.UsedAt = &used
	s.resets[tokenHash] = reset
	return reset, true, nil
}

func (s *Store) FindReset(_ context.Context, tokenHash string) (models.PasswordReset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reset, ok := s.resets[tokenHash]
	if !ok {
		return models.PasswordReset{}, storage.ErrNotFound
	}
	return reset, nil
}

func (s *Store) InvalidateUserResets(_ context.Context, userID uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retireResetsLocked(userID, now)
	return nil
}

// retireResetsLocked marks the user's unused grants used. Callers hold s.mu.
func (s *Store) retireResetsLocked(userID uuid.UUID, now time.Time) {
	for hash, reset := range s.resets {
		if reset.UserID == userID && !reset.Used() {
			used := now
			reset.UsedAt = &used
			s.resets[hash] = reset
		}
	}
}

func (s *Store) DeleteExpiredResets(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for hash, reset := range s.resets {
		if reset.Expired(now) {
			delete(s.resets, hash)
			n++
		}
	}
	return n, nil
}

func (s *Store) CreateJob(_ context.Context, job models.Job) (models.Job, error) {
	job.RequiredSkills = cloneSkills(job.RequiredSkills)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return models.Job{}, storage.ErrAlreadyExists
	}
	s.jobs[job.ID] = job
	return job, nil
}

func (s *Store) GetJob(_ context.Context, id uuid.UUID) (models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return models.Job{}, storage.ErrNotFound
	}
	return job, nil
}

func (s *Store) ListJobs(_ context.Context, filter models.JobFilter) ([]models.Job, error) {
	s.mu.RLock()
	jobs := make([]models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if matches(job, filter) {
			jobs = append(jobs, job)
		}
	}
	s.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID.String() < jobs[j].ID.String()
	})

	if filter.Offset >= len(jobs) {
		return []models.Job{}, nil
	}
	jobs = jobs[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(jobs) {
		jobs = jobs[:filter.Limit]
	}
	return jobs, nil
}

func (s *Store) UpdateJob(_ context.Context, job models.Job) (models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.jobs[job.ID]
	if !ok || current.OwnerID != job.OwnerID {
		return models.Job{}, storage.ErrNotFound
	}
	job.CreatedAt = current.CreatedAt
	job.RequiredSkills = cloneSkills(job.RequiredSkills)
	s.jobs[job.ID] = job
	return job, nil
}

func (s *Store) DeleteJob(_ context.Context, id, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok || job.OwnerID != ownerID {
		return storage.ErrNotFound
	}
	delete(s.jobs, id)
	for key, appID := range s.applied {
		if key.job == id {
			delete(s.applied, key)
			delete(s.applications, appID)
		}
	}
	return nil
}

func (s *Store) CreateApplication(_ context.Context, app models.Application) (models.Application, error) {
	key := appKey{job: app.JobID, applicant: app.ApplicantID}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[app.JobID]; !ok {
		return models.Application{}, storage.ErrNotFound
	}
	if _, dup := s.applied[key]; dup {
		return models.Application{}, storage.ErrAlreadyExists
	}
	s.applications[app.ID] = app
	s.applied[key] = app.ID
	return app, nil
}

func (s *Store) ListApplications(_ context.Context, jobID uuid.UUID) ([]models.Application, error) {
	s.mu.RLock()
	apps := make([]models.Application, 0)
	for _, app := range s.applications {
		if app.JobID == jobID {
			apps = append(apps, app)
		}
	}
	s.mu.RUnlock()

	sort.Slice(apps, func(i, j int) bool {
		if !apps[i].CreatedAt.Equal(apps[j].CreatedAt) {
			return apps[i].CreatedAt.Before(apps[j].CreatedAt)
		}
		return apps[i].ID.String() < apps[j].ID.String()
	})
	return apps, nil
}

func matches(job models.Job, f models.JobFilter) bool {
	if f.OwnerID != nil && job.OwnerID != *f.OwnerID {
		return false
	}
	if f.Category != "" && !strings.EqualFold(job.Category, f.Category) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(job.Location, f.Location) {
		return false
	}
	if f.ExperienceLevel != "" && !strings.EqualFold(job.ExperienceLevel, f.ExperienceLevel) {
		return false
	}
	return true
}

func cloneSkills(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
