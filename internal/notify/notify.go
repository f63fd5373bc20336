// Package notify delivers password-reset links.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/hongminglow/jobportal-be/internal/auth"
	"github.com/hongminglow/jobportal-be/internal/models"
)

// SMTPConfig holds mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer emails reset links over SMTP.
type Mailer struct {
	from   string
	linkTo string
	sender sender
	logger zerolog.Logger
}

// NewMailer builds a Mailer. resetURLBase is the page the link points at;
// the token is appended as the last path segment.
func NewMailer(cfg SMTPConfig, resetURLBase string, logger zerolog.Logger) *Mailer {
	return &Mailer{
		from:   cfg.From,
		linkTo: resetURLBase,
		sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger.With().Str("component", "mailer").Logger(),
	}
}

// SendPasswordReset emails the reset link to the user.
func (m *Mailer) SendPasswordReset(_ context.Context, user models.User, token auth.ResetToken) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", user.Email)
	msg.SetHeader("Subject", "Reset your password")
	msg.SetBody("text/plain", resetBody(user, ResetLink(m.linkTo, token.Value), token))

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	m.logger.Info().Str("user_id", user.ID.String()).Msg("password reset email sent")
	return nil
}

// LogNotifier only records that a reset was requested. It is used when no
// SMTP host is configured and never logs the token itself.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier returns a notifier that writes to logger.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, user models.User, token auth.ResetToken) error {
	n.logger.Warn().
		Str("user_id", user.ID.String()).
		Time("expires_at", token.ExpiresAt).
		Msg("password reset issued but mail delivery is not configured")
	return nil
}

// ResetLink joins base and token.
func ResetLink(base, token string) string {
	return strings.TrimRight(base, "/") + "/" + token
}

func resetBody(user models.User, link string, token auth.ResetToken) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", user.Name)
	b.WriteString("We received a request to reset the password for your account.\n")
	fmt.Fprintf(&b, "Open the link below before %s to choose a new one:\n\n", token.ExpiresAt.Format("2006-01-02 15:04 MST"))
	b.WriteString(link)
	b.WriteString("\n\nIf you did not ask for this, you can ignore this email.\n")
	return b.String()
}
