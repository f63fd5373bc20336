package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hongminglow/jobportal-be/internal/apperr"
	"github.com/hongminglow/jobportal-be/internal/auth"
	"github.com/hongminglow/jobportal-be/internal/http/respond"
	"github.com/hongminglow/jobportal-be/internal/jobs"
	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/models/dto"
)

// JobsHandler exposes job postings and applications.
type JobsHandler struct {
	svc    *jobs.Service
	logger zerolog.Logger
}

// NewJobsHandler constructs the handler.
func NewJobsHandler(svc *jobs.Service, logger zerolog.Logger) *JobsHandler {
	return &JobsHandler{svc: svc, logger: logger}
}

// Register attaches job routes. Reads are public; everything else goes
// through guard.
func (h *JobsHandler) Register(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Route("/api/jobs", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)

		r.Group(func(r chi.Router) {
			r.Use(guard)
			r.Post("/add", h.handleCreate)
			r.Get("/mine", h.handleMine)
			r.Put("/{id}", h.handleUpdate)
			r.Delete("/{id}", h.handleDelete)
			r.Post("/{id}/apply", h.handleApply)
			r.Get("/{id}/applications", h.handleApplications)
		})
	})
}

func (h *JobsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}
	var fields models.JobFields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, h.logger, err)
		return
	}

	job, err := h.svc.Create(r.Context(), userID, fields)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "job created", job)
}

func (h *JobsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	page, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", listResponse(page))
}

func (h *JobsHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	page, err := h.svc.Mine(r.Context(), userID, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", listResponse(page))
}

func (h *JobsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	job, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", job)
}

func (h *JobsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var fields models.JobFields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, h.logger, err)
		return
	}

	job, err := h.svc.Update(r.Context(), id, userID, fields)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "job updated", job)
}

func (h *JobsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id, userID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *JobsHandler) handleApply(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var fields models.ApplicationFields
	if err := decodeJSON(w, r, &fields); err != nil {
		writeError(w, h.logger, err)
		return
	}

	app, err := h.svc.Apply(r.Context(), id, userID, fields)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "application submitted", app)
}

func (h *JobsHandler) handleApplications(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.identity(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	apps, err := h.svc.Applications(r.Context(), id, userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", apps)
}

func (h *JobsHandler) identity(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, h.logger, apperr.ErrUnauthenticated)
	}
	return userID, ok
}

func parseFilter(q url.Values) (models.JobFilter, error) {
	filter := models.JobFilter{
		Category:        q.Get("category"),
		Location:        q.Get("location"),
		ExperienceLevel: q.Get("experienceLevel"),
	}
	var err error
	if filter.Limit, err = intParam(q, "limit"); err != nil {
		return models.JobFilter{}, err
	}
	if filter.Offset, err = intParam(q, "offset"); err != nil {
		return models.JobFilter{}, err
	}
	return filter, nil
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation(name + " must be a non-negative integer")
	}
	return n, nil
}

func listResponse(page jobs.Page) dto.JobListResponse {
	return dto.JobListResponse{Jobs: page.Jobs, Count: len(page.Jobs), Limit: page.Limit, Offset: page.Offset}
}
