// Package apperr defines the domain error taxonomy shared by services and the
// HTTP layer. Callers match with errors.Is; Kind returns the stable string
// reported to clients.
package apperr

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyApplied     = errors.New("already applied to this job")

	// Reset-token lifecycle; session token verification reuses ErrTokenInvalid and ErrTokenExpired.
	ErrTokenInvalid     = errors.New("token invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenAlreadyUsed = errors.New("token already used")
)

// Stable kind strings.
const (
	KindValidation         = "validation_error"
	KindDuplicateEmail     = "duplicate_email"
	KindInvalidCredentials = "invalid_credentials"
	KindUnauthenticated    = "unauthenticated"
	KindForbidden          = "forbidden"
	KindNotFound           = "not_found"
	KindAlreadyApplied     = "already_applied"
	KindTokenInvalid       = "token_invalid"
	KindTokenExpired       = "token_expired"
	KindTokenAlreadyUsed   = "token_already_used"
	KindInternal           = "internal"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrValidation, KindValidation},
	{ErrDuplicateEmail, KindDuplicateEmail},
	{ErrInvalidCredentials, KindInvalidCredentials},
	{ErrUnauthenticated, KindUnauthenticated},
	{ErrForbidden, KindForbidden},
	{ErrNotFound, KindNotFound},
	{ErrAlreadyApplied, KindAlreadyApplied},
	{ErrTokenInvalid, KindTokenInvalid},
	{ErrTokenExpired, KindTokenExpired},
	{ErrTokenAlreadyUsed, KindTokenAlreadyUsed},
}

// Kind classifies err. Anything outside the taxonomy is KindInternal.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Validation wraps a human-readable message so that it matches ErrValidation.
func Validation(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }
