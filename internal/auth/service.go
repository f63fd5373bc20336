package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hongminglow/jobportal-be/internal/apperr"
	"github.com/hongminglow/jobportal-be/internal/logging"
	"github.com/hongminglow/jobportal-be/internal/models"
	"github.com/hongminglow/jobportal-be/internal/validate"
)

// ResetNotifier delivers a reset token to its owner out of band.
type ResetNotifier interface {
	SendPasswordReset(ctx context.Context, user models.User, token ResetToken) error
}

// RegisterInput is what signup accepts.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=200"`
	Phone    string `json:"phone" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type loginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type newPasswordInput struct {
	NewPassword string `json:"newPassword" validate:"required,maxbytes=72"`
}

// Session is an authenticated identity plus its bearer token.
type Session struct {
	User  models.User
	Token SessionToken
}

// Service orchestrates registration, login and the password-reset flow.
type Service struct {
	creds    *Credentials
	tokens   *TokenManager
	resets   *ResetTokens
	notifier ResetNotifier
	validate *validate.Validator
	logger   zerolog.Logger
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
		s.creds.now = now
	}
}

// NewService wires the auth service.
func NewService(creds *Credentials, tokens *TokenManager, resets *ResetTokens, notifier ResetNotifier, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		creds:    creds,
		tokens:   tokens,
		resets:   resets,
		notifier: notifier,
		validate: validate.New(),
		logger:   logger.With().Str("component", "auth").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an identity and logs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = NormalizeEmail(in.Email)
	if err := s.validate.Struct(in); err != nil {
		return Session{}, err
	}

	user, err := s.creds.Create(ctx, models.User{Name: in.Name, Phone: in.Phone, Email: in.Email}, in.Password)
	if err != nil {
		return Session{}, err
	}
	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return s.session(user)
}

// Login verifies email and password. Unknown emails and wrong passwords both
// fail with apperr.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if err := s.validate.Struct(loginInput{Email: email, Password: password}); err != nil {
		return Session{}, err
	}

	user, found, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if !found {
		s.creds.BurnCompare(password)
		return Session{}, apperr.ErrInvalidCredentials
	}

	ok, err := s.creds.VerifyPassword(user, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		return Session{}, apperr.ErrInvalidCredentials
	}
	return s.session(user)
}

// RequestPasswordReset issues a reset token for email when it is registered
// and hands it to the notifier. The caller cannot tell whether it was.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}

	user, found, err := s.creds.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !found {
		s.logger.Debug().Msg("password reset requested for unknown email")
		return nil
	}

	token, err := s.resets.IssueResetToken(ctx, user.ID, s.now().UTC())
	if err != nil {
		return err
	}
	if err := s.notifier.SendPasswordReset(ctx, user, token); err != nil {
		logging.Err(s.logger.Error(), err).
			Str("user_id", user.ID.String()).
			Msg("deliver password reset")
	}
	return nil
}

// CheckResetToken reports whether value is redeemable right now.
func (s *Service) CheckResetToken(ctx context.Context, value string) error {
	return s.resets.CheckResetToken(ctx, value, s.now().UTC())
}

// ResetPassword redeems the reset token and replaces the password. The new
// password is validated before the token is spent.
func (s *Service) ResetPassword(ctx context.Context, value, newPassword string) error {
	if err := s.validate.Struct(newPasswordInput{NewPassword: newPassword}); err != nil {
		return err
	}

	now := s.now().UTC()
	userID, err := s.resets.ConsumeResetToken(ctx, value, now)
	if err != nil {
		return err
	}

	if _, err := s.creds.UpdatePassword(ctx, userID, newPassword); err != nil {
		return err
	}
	if err := s.resets.store.InvalidateUserResets(ctx, userID, now); err != nil {
		logging.Err(s.logger.Warn(), err).
			Str("user_id", userID.String()).
			Msg("invalidate remaining reset tokens")
	}
	s.logger.Info().Str("user_id", userID.String()).Msg("password reset")
	return nil
}

// Authenticate resolves a bearer token to a user id.
func (s *Service) Authenticate(token string) (uuid.UUID, error) {
	return s.tokens.VerifySessionToken(token, s.now())
}

// Me returns the identity behind userID.
func (s *Service) Me(ctx context.Context, userID uuid.UUID) (models.User, error) {
	user, err := s.creds.FindByID(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.User{}, apperr.ErrUnauthenticated
	}
	return user, err
}

func (s *Service) session(user models.User) (Session, error) {
	token, err := s.tokens.IssueSessionToken(user.ID, s.now())
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Token: token}, nil
}
