package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hongminglow/jobportal-be/internal/apperr"
	"github.com/hongminglow/jobportal-be/internal/auth"
	"github.com/hongminglow/jobportal-be/internal/http/respond"
)

// TokenVerifier resolves a bearer token to the user it was issued to.
type TokenVerifier interface {
	Authenticate(token string) (uuid.UUID, error)
}

// RequireAuth rejects requests without a valid bearer token before the
// wrapped handler runs. On success the user id is stored in the request
// context, see auth.IdentityFrom.
func RequireAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "authentication required")
				return
			}

			userID, err := verifier.Authenticate(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, apperr.ErrTokenExpired) {
					msg = "token expired"
				}
				unauthorized(w, msg)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="jobportal"`)
	respond.Error(w, http.StatusUnauthorized, apperr.KindUnauthenticated, msg)
}
