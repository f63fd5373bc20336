package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hongminglow/jobportal-be/internal/apperr"
	"github.com/hongminglow/jobportal-be/internal/http/respond"
	"github.com/hongminglow/jobportal-be/internal/logging"
)

const maxBodyBytes = 1 << 20

var kindStatus = map[string]int{
	apperr.KindValidation:         http.StatusBadRequest,
	apperr.KindDuplicateEmail:     http.StatusConflict,
	apperr.KindInvalidCredentials: http.StatusUnauthorized,
	apperr.KindUnauthenticated:    http.StatusUnauthorized,
	apperr.KindForbidden:          http.StatusForbidden,
	apperr.KindNotFound:           http.StatusNotFound,
	apperr.KindAlreadyApplied:     http.StatusConflict,
	apperr.KindTokenInvalid:       http.StatusBadRequest,
	apperr.KindTokenExpired:       http.StatusGone,
	apperr.KindTokenAlreadyUsed:   http.StatusGone,
}

// writeError maps err onto the error taxonomy. Anything unclassified is
// logged and reported as a bare 500.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	kind := apperr.Kind(err)
	status, ok := kindStatus[kind]
	if !ok {
		logging.Err(logger.Error(), err).Msg("request failed")
		respond.Error(w, http.StatusInternalServerError, apperr.KindInternal, "internal server error")
		return
	}
	respond.Error(w, status, kind, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.Validation("request body is empty")
		case errors.As(err, &maxErr):
			return apperr.Validation("request body too large")
		default:
			return apperr.Validation("invalid JSON payload")
		}
	}
	return nil
}

// pathID parses a UUID path parameter. Malformed ids cannot name a
// resource, so they are reported as not found.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.ErrNotFound
	}
	return id, nil
}
