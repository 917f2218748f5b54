package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simple-event-calendar/server/internal/config"
)

func newTestService(t *testing.T, serverURL string) *Service {
	t.Helper()
	svc, err := NewService(config.EmailConfig{
		Enabled:      true,
		From:         "calendar@example.com",
		ResendAPIKey: "test-api-key",
	}, zerolog.Nop())
	require.NoError(t, err)

	baseURL, err := url.Parse(serverURL + "/")
	require.NoError(t, err)
	svc.resendClient.BaseURL = baseURL
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestNewService_RejectsBadSender(t *testing.T) {
	_, err := NewService(config.EmailConfig{Enabled: true, From: "not-an-address", ResendAPIKey: "k"}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sender email")
}

func TestNewService_RequiresAPIKeyWhenEnabled(t *testing.T) {
	_, err := NewService(config.EmailConfig{Enabled: true, From: "calendar@example.com"}, zerolog.Nop())
	require.Error(t, err)
}

func TestSend_DisabledOnlyLogs(t *testing.T) {
	var buf bytes.Buffer
	svc, err := NewService(config.EmailConfig{Enabled: false}, zerolog.New(&buf))
	require.NoError(t, err)

	require.NoError(t, svc.Send(context.Background(), "someone@example.com", "Hi", "<p>hi</p>"))
	assert.Contains(t, buf.String(), "email service disabled")
	assert.Nil(t, svc.resendClient)
}

func TestSend_RejectsHeaderInjection(t *testing.T) {
	svc, err := NewService(config.EmailConfig{}, zerolog.Nop())
	require.NoError(t, err)

	err = svc.Send(context.Background(), "victim@example.com\r\nBcc: all@example.com", "x", "y")
	require.Error(t, err)
}

func TestSendPasswordReset_ViaResend(t *testing.T) {
	var got resend.SendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("expected POST /emails, got %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "email-123"})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	link := "https://calendar.example.com/reset-password?email=a%40x.com&token=abc"
	err := svc.SendPasswordReset(context.Background(), "a@x.com", "Alice", link, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, "calendar@example.com", got.From)
	assert.Equal(t, []string{"a@x.com"}, got.To)
	assert.Equal(t, "Reset your password", got.Subject)
	assert.Contains(t, got.Html, "Hello Alice")
	assert.Contains(t, got.Html, "1 hour")
	assert.Contains(t, got.Html, "2026")
	assert.Contains(t, got.Html, "token=abc")
}

func TestSendPasswordReset_RejectsUnsafeLink(t *testing.T) {
	svc, err := NewService(config.EmailConfig{}, zerolog.Nop())
	require.NoError(t, err)

	for _, link := range []string{"javascript:alert(1)", "data:text/html,hi", "/reset-password"} {
		err := svc.SendPasswordReset(context.Background(), "a@x.com", "", link, time.Hour)
		if err == nil {
			t.Fatalf("expected %q to be rejected", link)
		}
	}
}

func TestSendViaResend_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Limit", "2")
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Reset", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Too many requests"})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	err := svc.Send(context.Background(), "a@x.com", "subject", "<p>body</p>")
	require.Error(t, err)
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		assert.ErrorIs(t, err, ErrRateLimited)
	}
}

func TestSendViaResend_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "boom"})
	}))
	defer server.Close()

	svc := newTestService(t, server.URL)
	err := svc.Send(context.Background(), "a@x.com", "subject", "<p>body</p>")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRateLimited))
}

func TestSendViaResend_NilClient(t *testing.T) {
	svc := &Service{config: config.EmailConfig{Enabled: true}, logger: zerolog.Nop()}
	err := svc.sendViaResend(context.Background(), "a@x.com", "s", "b")
	require.Error(t, err)
}

func TestHumanDuration(t *testing.T) {
	cases := map[time.Duration]string{
		time.Hour:        "1 hour",
		2 * time.Hour:    "2 hours",
		30 * time.Minute: "30 minutes",
		0:                "a short while",
	}
	for in, want := range cases {
		if got := humanDuration(in); got != want {
			t.Fatalf("humanDuration(%v) = %q, want %q", in, got, want)
		}
	}
}
