package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/simple-event-calendar/server/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// Service delivers transactional mail through Resend. With email disabled it
// only logs what it would have sent.
type Service struct {
	config       config.EmailConfig
	templates    *template.Template
	resendClient *resend.Client
	logger       zerolog.Logger
	now          func() time.Time
}

// PasswordResetData holds data for rendering the password reset template
type PasswordResetData struct {
	Name        string
	ResetLink   string
	ExpiresIn   string
	CurrentYear int
}

// NewService creates a new email service instance
func NewService(cfg config.EmailConfig, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
		if cfg.ResendAPIKey == "" {
			return nil, fmt.Errorf("resend API key is required when email is enabled")
		}
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	svc := &Service{
		config:    cfg,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
		now:       time.Now,
	}
	if cfg.Enabled {
		svc.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return svc, nil
}

// Send delivers one HTML message.
func (s *Service) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("subject", subject).
			Msg("email service disabled, skipping send")
		return nil
	}

	return s.sendViaResend(ctx, to, subject, htmlBody)
}

// SendPasswordReset renders and sends the reset link to a user.
func (s *Service) SendPasswordReset(ctx context.Context, to, name, resetLink string, ttl time.Duration) error {
	if err := validateLink(resetLink); err != nil {
		return fmt.Errorf("invalid reset link: %w", err)
	}

	htmlBody, err := s.renderTemplate("password_reset.html", PasswordResetData{
		Name:        name,
		ResetLink:   resetLink,
		ExpiresIn:   humanDuration(ttl),
		CurrentYear: s.now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render password reset template: %w", err)
	}

	if err := s.Send(ctx, to, "Reset your password", htmlBody); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// validateEmailAddress rejects malformed addresses and header injection attempts
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

// validateLink only allows http(s) URLs with a host, so javascript: and data:
// links never reach a template.
func validateLink(link string) error {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: %s (must be http or https)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

func (s *Service) renderTemplate(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short while"
	case d%time.Hour == 0:
		if d == time.Hour {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", int(d/time.Hour))
	default:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}
}
