package testauth

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/simple-event-calendar/server/internal/auth"
)

func TestNewTestAuthenticator_JWT(t *testing.T) {
	ta, err := NewTestAuthenticator(Config{
		Mode:      AuthModeJWT,
		JWTSecret: "test_secret",
		UserID:    42,
		Email:     "ana@example.com",
	})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	header := ta.GetAuthHeader()
	if !strings.HasPrefix(header, "Bearer ") {
		t.Fatalf("expected Bearer prefix, got %s", header)
	}

	claims, err := auth.NewJWTManager("test_secret", time.Hour, DevJWTIssuer).Validate(ta.Token())
	if err != nil {
		t.Fatalf("token should validate: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "ana@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestNewTestAuthenticator_None(t *testing.T) {
	ta, err := NewTestAuthenticator(Config{Mode: AuthModeNone})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}
	if header := ta.GetAuthHeader(); header != "" {
		t.Errorf("expected empty header, got %s", header)
	}

	req, _ := http.NewRequest(http.MethodGet, "/events", nil)
	ta.AddAuth(req)
	if req.Header.Get("Authorization") != "" {
		t.Error("AuthModeNone should not set Authorization")
	}
}

func TestNewTestAuthenticator_InvalidMode(t *testing.T) {
	if _, err := NewTestAuthenticator(Config{Mode: "apikey"}); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestAddAuth(t *testing.T) {
	ta, err := NewTestAuthenticator(Config{})
	if err != nil {
		t.Fatalf("failed to create authenticator: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, "/events", nil)
	ta.AddAuth(req)
	if got := req.Header.Get("Authorization"); got != ta.GetAuthHeader() {
		t.Errorf("expected %q, got %q", ta.GetAuthHeader(), got)
	}

	ta.AddAuth(nil)
}

func TestDevJWTTokenUsesDevSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	token, err := DevJWTToken(7, "dev@example.com")
	if err != nil {
		t.Fatalf("DevJWTToken: %v", err)
	}
	claims, err := auth.NewJWTManager(DevJWTSecret, time.Hour, DevJWTIssuer).Validate(token)
	if err != nil {
		t.Fatalf("token should validate with the dev secret: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("expected user 7, got %d", claims.UserID)
	}
}
