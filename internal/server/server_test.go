package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/jobportal-be/internal/auth"
	"github.com/hongminglow/jobportal-be/internal/config"
	"github.com/hongminglow/jobportal-be/internal/jobs"
	"github.com/hongminglow/jobportal-be/internal/notify"
	"github.com/hongminglow/jobportal-be/internal/storage/memory"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memory.New()
	authSvc := auth.NewService(
		auth.NewCredentials(store, auth.NewBcryptHasher()),
		auth.NewTokenManager("secret", "jobportal-test", time.Hour),
		auth.NewResetTokens(store, time.Minute),
		notify.NewLogNotifier(zerolog.Nop()),
		zerolog.Nop(),
	)
	return NewRouter(config.Config{CORSOrigins: []string{"*"}}, Deps{
		Auth:     authSvc,
		Jobs:     jobs.NewService(store, nil, zerolog.Nop()),
		Health:   store,
		Registry: prometheus.NewRegistry(),
		Logger:   zerolog.Nop(),
	})
}

func TestRouter_Routes(t *testing.T) {
	h := newRouter(t)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "public list", method: http.MethodGet, path: "/api/jobs", wantStatus: http.StatusOK},
		{name: "guarded create", method: http.MethodPost, path: "/api/jobs/add", wantStatus: http.StatusUnauthorized},
		{name: "guarded mine", method: http.MethodGet, path: "/api/jobs/mine", wantStatus: http.StatusUnauthorized},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
		{name: "wrong method", method: http.MethodPatch, path: "/api/auth/login", wantStatus: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	h := newRouter(t)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `jobportal_http_requests_total{method="GET",route="/health",status="200"} 1`))
}

func TestRouter_Preflight(t *testing.T) {
	h := newRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	req.Header.Set("Origin", "https://app.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
