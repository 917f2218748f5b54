// Package users implements registration, login and the password reset flow.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/simple-event-calendar/server/internal/audit"
	"github.com/simple-event-calendar/server/internal/auth"
	"github.com/simple-event-calendar/server/internal/domain/apperr"
	"github.com/simple-event-calendar/server/internal/metrics"
	"github.com/simple-event-calendar/server/internal/storage"
)

// Client-facing messages.
const (
	MsgEmailTaken         = "email is already in use"
	MsgHandleTaken        = "given name is already in use"
	MsgInvalidCredentials = "invalid credentials"
	MsgUserNotFound       = "user not found"
	MsgInvalidResetToken  = "invalid reset token"
	MsgResetTokenExpired  = "reset token has expired"
	MsgNameRequired       = "name is required"
	MsgHandleRequired     = "given name is required"
)

const defaultSendTimeout = 30 * time.Second

// Notifier delivers the password reset link out of band.
type Notifier interface {
	SendPasswordReset(ctx context.Context, to, name, resetLink string, ttl time.Duration) error
}

// Config holds the tunables of the credential flows.
type Config struct {
	BcryptCost   int
	ResetBaseURL string
	ResetTTL     time.Duration
}

// Service handles user credential operations
type Service struct {
	repo        storage.Repository
	tokens      *auth.JWTManager
	notifier    Notifier
	auditLogger *audit.Logger
	cfg         Config
	logger      zerolog.Logger
	now         func() time.Time
	sendTimeout time.Duration
	pending     sync.WaitGroup
}

func NewService(
	repo storage.Repository,
	tokens *auth.JWTManager,
	notifier Notifier,
	auditLogger *audit.Logger,
	cfg Config,
	logger zerolog.Logger,
) *Service {
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &Service{
		repo:        repo,
		tokens:      tokens,
		notifier:    notifier,
		auditLogger: auditLogger,
		cfg:         cfg,
		logger:      logger.With().Str("component", "users").Logger(),
		now:         time.Now,
		sendTimeout: defaultSendTimeout,
	}
}

type RegisterParams struct {
	Name      string
	Email     string
	GivenName string
	Password  string
}

// Session is what a client receives after signup or login.
type Session struct {
	Token     string
	UserID    int64
	GivenName string
	ExpiresAt time.Time
}

// Register creates a user and signs them in. Email is checked before the handle.
func (s *Service) Register(ctx context.Context, params RegisterParams) (Session, error) {
	params.Email = normalizeEmail(params.Email)
	params.GivenName = strings.TrimSpace(params.GivenName)
	params.Name = strings.TrimSpace(params.Name)
	if params.Name == "" {
		return Session{}, apperr.Validation(MsgNameRequired)
	}
	if params.GivenName == "" {
		return Session{}, apperr.Validation(MsgHandleRequired)
	}
	if err := validatePassword(params.Password); err != nil {
		return Session{}, err
	}

	if _, err := s.repo.Users().GetByEmail(ctx, params.Email); err == nil {
		return Session{}, apperr.Conflict(MsgEmailTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Session{}, apperr.Storage("check email", err)
	}
	if _, err := s.repo.Users().GetByGivenName(ctx, params.GivenName); err == nil {
		return Session{}, apperr.Conflict(MsgHandleTaken)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Session{}, apperr.Storage("check given name", err)
	}

	hash, err := auth.HashPassword(params.Password, s.cfg.BcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("register: %w", err)
	}

	user, err := s.repo.Users().Create(ctx, storage.CreateUserParams{
		Name:         params.Name,
		Email:        params.Email,
		GivenName:    params.GivenName,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		// A concurrent signup can pass both checks; the UNIQUE constraints decide.
		switch storage.ConflictField(err) {
		case "email":
			return Session{}, apperr.Conflict(MsgEmailTaken)
		case "given_name":
			return Session{}, apperr.Conflict(MsgHandleTaken)
		}
		return Session{}, apperr.Storage("create user", err)
	}

	session, err := s.issue(user)
	if err != nil {
		return Session{}, err
	}

	metrics.UserSignupsTotal.Inc()
	s.auditLogger.LogSuccess("user.registered", user.Email, "user", idString(user.ID), audit.ClientIP(ctx), map[string]string{
		"given_name": user.GivenName,
	})
	return session, nil
}

// Login verifies credentials. Unknown emails and wrong passwords fail the same
// way and take comparable time.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return Session{}, apperr.Storage("get user by email", err)
		}
		auth.BurnCompare(password, s.cfg.BcryptCost)
		s.loginFailed(ctx, email, "unknown_email")
		return Session{}, apperr.Auth(MsgInvalidCredentials)
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		s.loginFailed(ctx, email, "wrong_password")
		return Session{}, apperr.Auth(MsgInvalidCredentials)
	}

	session, err := s.issue(user)
	if err != nil {
		return Session{}, err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.auditLogger.LogSuccess("user.login", user.Email, "user", idString(user.ID), audit.ClientIP(ctx), nil)
	return session, nil
}

func (s *Service) loginFailed(ctx context.Context, email, reason string) {
	metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
	s.auditLogger.LogFailure("user.login", email, audit.ClientIP(ctx), map[string]string{"reason": reason})
}

// RequestPasswordReset stores a single-use token and mails the link. Delivery
// runs in the background; its failures are logged only.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(MsgUserNotFound)
		}
		return apperr.Storage("get user by email", err)
	}

	token, hash, err := auth.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}
	now := s.now()
	if _, err := s.repo.PasswordResets().Create(ctx, storage.CreatePasswordResetParams{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.cfg.ResetTTL),
		CreatedAt: now,
	}); err != nil {
		return apperr.Storage("create password reset", err)
	}

	link := s.resetLink(user.Email, token)
	s.auditLogger.LogSuccess("user.password_reset_requested", user.Email, "user", idString(user.ID), audit.ClientIP(ctx), nil)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		// The request context ends with the response; delivery gets its own deadline.
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sendTimeout)
		defer cancel()

		if err := s.notifier.SendPasswordReset(sendCtx, user.Email, user.Name, link, s.cfg.ResetTTL); err != nil {
			metrics.PasswordResetEmailsTotal.WithLabelValues("failed").Inc()
			s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to send password reset email")
			return
		}
		metrics.PasswordResetEmailsTotal.WithLabelValues("sent").Inc()
	}()
	return nil
}

// UpdatePassword replaces the password of the user owning a valid reset token
// and consumes the token.
func (s *Service) UpdatePassword(ctx context.Context, email, newPassword, resetToken string) error {
	email = normalizeEmail(email)
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if strings.TrimSpace(resetToken) == "" {
		return apperr.Auth(MsgInvalidResetToken)
	}

	// Hash outside the transaction; SQLite holds a write lock for its duration.
	hash, err := auth.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	var user storage.User
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx storage.Repository) error {
		var err error
		user, err = tx.Users().GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.NotFound(MsgUserNotFound)
			}
			return apperr.Storage("get user by email", err)
		}

		reset, err := tx.PasswordResets().GetByTokenHash(ctx, auth.HashResetToken(resetToken))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.Auth(MsgInvalidResetToken)
			}
			return apperr.Storage("get password reset", err)
		}
		if reset.UserID != user.ID || reset.UsedAt != nil {
			return apperr.Auth(MsgInvalidResetToken)
		}
		now := s.now()
		if !now.Before(reset.ExpiresAt) {
			return apperr.Expired(MsgResetTokenExpired)
		}

		if err := tx.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
			return apperr.Storage("update password", err)
		}
		if err := tx.PasswordResets().MarkUsed(ctx, reset.ID, now); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.Auth(MsgInvalidResetToken)
			}
			return apperr.Storage("consume password reset", err)
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindAuth || apperr.KindOf(err) == apperr.KindExpired {
			s.auditLogger.LogFailure("user.password_updated", email, audit.ClientIP(ctx), map[string]string{"reason": apperr.Message(err, "")})
		}
		return err
	}

	s.auditLogger.LogSuccess("user.password_updated", user.Email, "user", idString(user.ID), audit.ClientIP(ctx), nil)
	return nil
}

// Wait blocks until background notifications have finished.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) issue(user storage.User) (Session, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		GivenName: user.GivenName,
		ExpiresAt: s.now().Add(s.tokens.Expiry()),
	}, nil
}

func (s *Service) resetLink(email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return strings.TrimRight(s.cfg.ResetBaseURL, "/") + "/reset-password?" + q.Encode()
}

func validatePassword(password string) error {
	if len(password) < auth.MinPasswordLength {
		return apperr.Validation(fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}
	if len(password) > 72 {
		return apperr.Validation("password must be at most 72 bytes")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
