// Package testauth mints bearer tokens for local development and tests.
// The defaults match the development JWT secret, so tokens it issues are
// only accepted by a server running with ENVIRONMENT=development or test.
package testauth

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/simple-event-calendar/server/internal/auth"
)

const (
	// DevJWTSecret matches the secret config.Load falls back to outside production.
	DevJWTSecret = "dev-only-secret-change-me-0123456789abcdef"
	DevJWTIssuer = "simple-event-calendar"
)

type AuthMode string

const (
	AuthModeJWT  AuthMode = "jwt"
	AuthModeNone AuthMode = "none"
)

// TestAuthenticator adds an Authorization header to outgoing requests.
type TestAuthenticator struct {
	mode  AuthMode
	token string
}

type Config struct {
	Mode AuthMode

	// JWTSecret defaults to JWT_SECRET, then DevJWTSecret.
	JWTSecret string
	JWTIssuer string
	Expiry    time.Duration

	UserID int64
	Email  string
}

func NewTestAuthenticator(cfg Config) (*TestAuthenticator, error) {
	if cfg.Mode == "" {
		cfg.Mode = AuthModeJWT
	}

	switch cfg.Mode {
	case AuthModeJWT:
		token, err := signToken(cfg)
		if err != nil {
			return nil, err
		}
		return &TestAuthenticator{mode: cfg.Mode, token: token}, nil
	case AuthModeNone:
		return &TestAuthenticator{mode: cfg.Mode}, nil
	default:
		return nil, fmt.Errorf("unknown auth mode: %s", cfg.Mode)
	}
}

func signToken(cfg Config) (string, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	if secret == "" {
		secret = DevJWTSecret
	}
	issuer := cfg.JWTIssuer
	if issuer == "" {
		issuer = DevJWTIssuer
	}
	expiry := cfg.Expiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	if cfg.UserID <= 0 {
		cfg.UserID = 1
	}
	if cfg.Email == "" {
		cfg.Email = "dev@localhost"
	}

	token, err := auth.NewJWTManager(secret, expiry, issuer).Generate(cfg.UserID, cfg.Email)
	if err != nil {
		return "", fmt.Errorf("failed to generate JWT: %w", err)
	}
	return token, nil
}

// AddAuth sets the Authorization header on req. AuthModeNone leaves it untouched.
func (ta *TestAuthenticator) AddAuth(req *http.Request) {
	if req == nil || ta.mode != AuthModeJWT {
		return
	}
	req.Header.Set("Authorization", ta.GetAuthHeader())
}

func (ta *TestAuthenticator) GetAuthHeader() string {
	if ta.mode != AuthModeJWT {
		return ""
	}
	return "Bearer " + ta.token
}

// Token is the raw signed JWT, empty in AuthModeNone.
func (ta *TestAuthenticator) Token() string {
	return ta.token
}

// DevJWTToken signs a token for userID with the development defaults.
func DevJWTToken(userID int64, email string) (string, error) {
	return signToken(Config{UserID: userID, Email: email})
}
