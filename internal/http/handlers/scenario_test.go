package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/jobportal-be/internal/auth"
	"github.com/hongminglow/jobportal-be/internal/http/respond"
	"github.com/hongminglow/jobportal-be/internal/jobs"
	"github.com/hongminglow/jobportal-be/internal/middleware"
	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/storage/memory"
)

type inbox struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (i *inbox) SendPasswordReset(_ context.Context, user models.User, token auth.ResetToken) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.tokens[user.Email] = token.Value
	return nil
}

func (i *inbox) tokenFor(t *testing.T, email string) string {
	t.Helper()
	i.mu.Lock()
	defer i.mu.Unlock()
	tok, ok := i.tokens[email]
	require.True(t, ok, "no reset token for %s", email)
	return tok
}

type apiResponse struct {
	respond.Envelope
	Data json.RawMessage `json:"data"`
}

type sessionBody struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

func newTestAPI(t *testing.T) (*httptest.Server, *inbox, *auth.TokenManager) {
	t.Helper()
	store := memory.New()
	mail := &inbox{tokens: map[string]string{}}
	tokens := auth.NewTokenManager("scenario-secret", "jobportal-test", 24*time.Hour)
	authSvc := auth.NewService(
		auth.NewCredentials(store, auth.BcryptHasher{Cost: bcrypt.MinCost}),
		tokens,
		auth.NewResetTokens(store, 30*time.Minute),
		mail,
		zerolog.Nop(),
	)
	jobSvc := jobs.NewService(store, nil, zerolog.Nop())

	r := chi.NewRouter()
	guard := middleware.RequireAuth(authSvc)
	NewHealthHandler(time.Now(), store).Register(r)
	NewAuthHandler(authSvc, zerolog.Nop()).Register(r, guard)
	NewJobsHandler(jobSvc, zerolog.Nop()).Register(r, guard)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, mail, tokens
}

func doJSON(t *testing.T, method, url, token string, body any) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp.StatusCode, out
}

func requestSignup(t *testing.T, baseURL, email, password string) sessionBody {
	t.Helper()
	status, resp := doJSON(t, http.MethodPost, baseURL+"/api/auth/signup", "", map[string]string{
		"name": "Test User", "phone": "555-0100", "email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, status, resp.Message)
	var sess sessionBody
	require.NoError(t, json.Unmarshal(resp.Data, &sess))
	return sess
}

func requestLogin(t *testing.T, baseURL, email, password string) (int, apiResponse) {
	t.Helper()
	return doJSON(t, http.MethodPost, baseURL+"/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
}

func TestAuthScenario(t *testing.T) {
	ts, mail, tokens := newTestAPI(t)

	a := requestSignup(t, ts.URL, "alice@x.com", "pw1")
	require.NotEmpty(t, a.Token)

	status, resp := requestLogin(t, ts.URL, "alice@x.com", "pw1")
	require.Equal(t, http.StatusOK, status)
	var b sessionBody
	require.NoError(t, json.Unmarshal(resp.Data, &b))

	idA, err := tokens.VerifySessionToken(a.Token, time.Now())
	require.NoError(t, err)
	idB, err := tokens.VerifySessionToken(b.Token, time.Now())
	require.NoError(t, err)
	assert.Equal(t, idA, idB)
	assert.Equal(t, a.User.ID, idA)

	status, wrong := requestLogin(t, ts.URL, "alice@x.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid_credentials", wrong.Kind)
	status, unknown := requestLogin(t, ts.URL, "nobody@x.com", "pw1")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, wrong.Message, unknown.Message)

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/forgot-password", "", map[string]string{"email": "alice@x.com"})
	require.Equal(t, http.StatusOK, status)
	resetToken := mail.tokenFor(t, "alice@x.com")

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/api/auth/reset-password/"+resetToken, "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/api/auth/reset-password/"+resetToken, "", map[string]string{"newPassword": "pw2"})
	require.Equal(t, http.StatusOK, status)

	status, again := doJSON(t, http.MethodPost, ts.URL+"/api/auth/reset-password/"+resetToken, "", map[string]string{"newPassword": "pw3"})
	assert.Equal(t, http.StatusGone, status)
	assert.Equal(t, "token_already_used", again.Kind)

	status, _ = requestLogin(t, ts.URL, "alice@x.com", "pw1")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = requestLogin(t, ts.URL, "alice@x.com", "pw2")
	assert.Equal(t, http.StatusOK, status)
}

func TestAuthErrors(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	requestSignup(t, ts.URL, "alice@x.com", "pw1")

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		body       any
		wantStatus int
		wantKind   string
	}{
		{
			name: "duplicate signup", method: http.MethodPost, path: "/api/auth/signup",
			body:       map[string]string{"name": "A", "phone": "1", "email": "ALICE@x.com", "password": "x"},
			wantStatus: http.StatusConflict, wantKind: "duplicate_email",
		},
		{
			name: "signup missing fields", method: http.MethodPost, path: "/api/auth/signup",
			body:       map[string]string{"email": "bob@x.com"},
			wantStatus: http.StatusBadRequest, wantKind: "validation_error",
		},
		{
			name: "signup password over 72 bytes", method: http.MethodPost, path: "/api/auth/signup",
			body:       map[string]string{"name": "B", "phone": "1", "email": "bob@x.com", "password": strings.Repeat("é", 40)},
			wantStatus: http.StatusBadRequest, wantKind: "validation_error",
		},
		{
			name: "signup bad json", method: http.MethodPost, path: "/api/auth/signup",
			body:       "not an object",
			wantStatus: http.StatusBadRequest, wantKind: "validation_error",
		},
		{
			name: "forgot unknown email still acks", method: http.MethodPost, path: "/api/auth/forgot-password",
			body:       map[string]string{"email": "ghost@x.com"},
			wantStatus: http.StatusOK,
		},
		{
			name: "reset with garbage token", method: http.MethodPost, path: "/api/auth/reset-password/garbage",
			body:       map[string]string{"newPassword": "pw2"},
			wantStatus: http.StatusBadRequest, wantKind: "token_invalid",
		},
		{
			name: "me without token", method: http.MethodGet, path: "/api/auth/me",
			wantStatus: http.StatusUnauthorized, wantKind: "unauthenticated",
		},
		{
			name: "me with forged token", method: http.MethodGet, path: "/api/auth/me", token: "a.b.c",
			wantStatus: http.StatusUnauthorized, wantKind: "unauthenticated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := doJSON(t, tt.method, ts.URL+tt.path, tt.token, tt.body)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantKind, resp.Kind)
		})
	}
}

func TestMe(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	sess := requestSignup(t, ts.URL, "alice@x.com", "pw1")

	status, resp := doJSON(t, http.MethodGet, ts.URL+"/api/auth/me", sess.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var user map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &user))
	assert.Equal(t, "alice@x.com", user["email"])
	assert.NotContains(t, user, "password_hash")
	assert.NotContains(t, user, "PasswordHash")
}

func jobBody(title string) map[string]any {
	return map[string]any{
		"title":            title,
		"company":          "Acme",
		"description":      "Build APIs",
		"location":         "Remote",
		"category":         "Engineering",
		"required_skills":  []string{"go"},
		"experience_level": "Mid",
	}
}

func TestJobOwnershipScenario(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	u1 := requestSignup(t, ts.URL, "u1@x.com", "pw")
	u2 := requestSignup(t, ts.URL, "u2@x.com", "pw")

	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/jobs/add", "", jobBody("Go dev"))
	assert.Equal(t, http.StatusUnauthorized, status)

	payload := jobBody("Go dev")
	payload["owner_id"] = u2.User.ID.String()
	status, resp := doJSON(t, http.MethodPost, ts.URL+"/api/jobs/add", u1.Token, payload)
	require.Equal(t, http.StatusCreated, status)
	var job models.Job
	require.NoError(t, json.Unmarshal(resp.Data, &job))
	assert.Equal(t, u1.User.ID, job.OwnerID, "owner comes from the token, not the body")

	jobURL := ts.URL + "/api/jobs/" + job.ID.String()

	status, resp = doJSON(t, http.MethodPut, jobURL, u2.Token, jobBody("hijacked"))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", resp.Kind)

	status, _ = doJSON(t, http.MethodPut, jobURL, u1.Token, jobBody("Senior Go dev"))
	assert.Equal(t, http.StatusOK, status)

	status, resp = doJSON(t, http.MethodGet, jobURL, "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &job))
	assert.Equal(t, "Senior Go dev", job.Title)

	status, _ = doJSON(t, http.MethodPost, jobURL+"/apply", u2.Token, map[string]string{"name": "U2", "email": "u2@x.com"})
	assert.Equal(t, http.StatusCreated, status)
	status, resp = doJSON(t, http.MethodPost, jobURL+"/apply", u2.Token, map[string]string{"name": "U2", "email": "u2@x.com"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_applied", resp.Kind)

	status, _ = doJSON(t, http.MethodGet, jobURL+"/applications", u2.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, resp = doJSON(t, http.MethodGet, jobURL+"/applications", u1.Token, nil)
	require.Equal(t, http.StatusOK, status)
	var apps []models.Application
	require.NoError(t, json.Unmarshal(resp.Data, &apps))
	assert.Len(t, apps, 1)

	status, _ = doJSON(t, http.MethodDelete, jobURL, u2.Token, nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = doJSON(t, http.MethodDelete, jobURL, u1.Token, nil)
	assert.Equal(t, http.StatusNoContent, status)
	status, _ = doJSON(t, http.MethodDelete, jobURL, u1.Token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestJobListing(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	u1 := requestSignup(t, ts.URL, "u1@x.com", "pw")
	u2 := requestSignup(t, ts.URL, "u2@x.com", "pw")

	for _, tc := range []struct {
		token, title, category string
	}{
		{u1.Token, "a", "Engineering"},
		{u1.Token, "b", "Design"},
		{u2.Token, "c", "engineering"},
	} {
		body := jobBody(tc.title)
		body["category"] = tc.category
		status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/jobs/add", tc.token, body)
		require.Equal(t, http.StatusCreated, status)
	}

	var list struct {
		Jobs  []models.Job `json:"jobs"`
		Count int          `json:"count"`
		Limit int          `json:"limit"`
	}

	status, resp := doJSON(t, http.MethodGet, ts.URL+"/api/jobs?category=Engineering", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, 50, list.Limit)

	status, resp = doJSON(t, http.MethodGet, ts.URL+"/api/jobs/mine", u1.Token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.Equal(t, 2, list.Count)

	var paged struct {
		Count  int `json:"count"`
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}
	status, resp = doJSON(t, http.MethodGet, ts.URL+"/api/jobs?limit=1000&offset=1", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &paged))
	assert.Equal(t, 100, paged.Limit, "limit is capped, and the cap is echoed back")
	assert.Equal(t, 1, paged.Offset)
	assert.Equal(t, 2, paged.Count)

	status, _ = doJSON(t, http.MethodGet, ts.URL+"/api/jobs?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = doJSON(t, http.MethodGet, ts.URL+"/api/jobs/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestAPI(t)
	status, resp := doJSON(t, http.MethodGet, ts.URL+"/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(resp.Data), `"database":"ok"`)
}
