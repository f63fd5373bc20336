package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hongminglow/jobportal-be/internal/apperr"
	"github.com/hongminglow/jobportal-be/internal/auth"
	"github.com/hongminglow/jobportal-be/internal/http/respond"
	"github.com/hongminglow/jobportal-be/internal/logging"
	"github.com/hongminglow/jobportal-be/internal/models/dto"
)

// AuthHandler owns signup, login, password reset and identity endpoints.
type AuthHandler struct {
	svc    *auth.Service
	logger zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc *auth.Service, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Register attaches auth routes. guard protects the routes that need a session.
func (h *AuthHandler) Register(r chi.Router, guard func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", h.handleSignup)
		r.Post("/login", h.handleLogin)
		r.Post("/forgot-password", h.handleForgotPassword)
		r.Get("/reset-password/{token}", h.handleCheckReset)
		r.Post("/reset-password/{token}", h.handleResetPassword)
		r.With(guard).Get("/me", h.handleMe)
	})
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	sess, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "user created successfully", sessionResponse(sess))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", sessionResponse(sess))
}

func (h *AuthHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.svc.RequestPasswordReset(r.Context(), req.Email); err != nil {
		// Still acknowledge; a failure here must not reveal whether the email exists.
		logging.Err(h.logger.Error(), err).Msg("request password reset")
	}
	respond.JSON(w, http.StatusOK, "if that email is registered, a reset link has been sent", nil)
}

func (h *AuthHandler) handleCheckReset(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CheckResetToken(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "reset token is valid", nil)
}

func (h *AuthHandler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.NewPassword); err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "password has been reset", nil)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, h.logger, apperr.ErrUnauthenticated)
		return
	}
	user, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}

func sessionResponse(sess auth.Session) dto.SessionResponse {
	return dto.SessionResponse{
		Token:     sess.Token.Value,
		ExpiresAt: sess.Token.ExpiresAt,
		User:      sess.User,
	}
}
