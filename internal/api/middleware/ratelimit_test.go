package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simple-event-calendar/server/internal/config"
)

func newTestLimiter(t *testing.T, cfg config.RateLimitConfig) http.Handler {
	t.Helper()
	limiter := NewRateLimiter(cfg)
	t.Cleanup(limiter.Stop)
	return limiter.Middleware(okHandler())
}

func tieredRequest(tier RateLimitTier, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr
	return req.WithContext(WithRateLimitTier(req.Context(), tier))
}

func TestLoginRateLimit_AllowsInitialBurst(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{LoginPer15Minutes: 5})

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, tieredRequest(TierLogin, "192.168.1.100:12345"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected status 200, got %d", i+1, rec.Code)
		}
	}
}

func TestLoginRateLimit_BlocksAfterBurst(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{LoginPer15Minutes: 5})

	for i := 0; i < 5; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), tieredRequest(TierLogin, "192.168.1.101:54321"))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, tieredRequest(TierLogin, "192.168.1.101:54321"))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "180", rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["err"])
	assert.EqualValues(t, 429, body["status"])
}

func TestLoginRateLimit_PerIPIsolation(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{LoginPer15Minutes: 1})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, tieredRequest(TierLogin, "10.0.0.1:1000"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, tieredRequest(TierLogin, "10.0.0.1:1001"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, tieredRequest(TierLogin, "10.0.0.2:1000"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit_TiersAreIndependent(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{PublicPerMinute: 1, LoginPer15Minutes: 1})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, tieredRequest(TierLogin, "10.0.0.3:1000"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, tieredRequest(TierPublic, "10.0.0.3:1000"))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, tieredRequest(TierPublic, "10.0.0.3:1000"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimit_DefaultsToPublicTier(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{PublicPerMinute: 1})

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req.RemoteAddr = "10.0.0.4:1000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimit_ZeroMeansUnlimited(t *testing.T) {
	handler := newTestLimiter(t, config.RateLimitConfig{})

	for i := 0; i < 50; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, tieredRequest(TierAuthenticated, "10.0.0.5:1000"))
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestWithRateLimitTierHandler(t *testing.T) {
	var seen RateLimitTier
	handler := WithRateLimitTierHandler(TierLogin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(rateLimitTierKey).(RateLimitTier)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, TierLogin, seen)
}

func TestClientKey(t *testing.T) {
	trusted := parseCIDRs([]string{"10.0.0.0/8", "not-a-cidr"})
	require.Len(t, trusted, 1)

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		expected   string
	}{
		{name: "remote address", remoteAddr: "203.0.113.7:4000", expected: "203.0.113.7"},
		{
			name:       "forwarded header from untrusted peer is ignored",
			remoteAddr: "203.0.113.7:4000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1"},
			expected:   "203.0.113.7",
		},
		{
			name:       "first forwarded address from trusted proxy",
			remoteAddr: "10.1.2.3:4000",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.1, 10.1.2.3"},
			expected:   "198.51.100.1",
		},
		{
			name:       "real ip from trusted proxy",
			remoteAddr: "10.1.2.3:4000",
			headers:    map[string]string{"X-Real-IP": "198.51.100.2"},
			expected:   "198.51.100.2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/events", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, clientKey(req, trusted))
		})
	}
}

func TestLimiterStoreCleanup(t *testing.T) {
	store := newLimiterStore(config.RateLimitConfig{PublicPerMinute: 10})
	defer store.Stop()

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	require.NotNil(t, store.limiter(TierPublic, "a"))

	now = now.Add(limiterTTL + time.Second)
	require.NotNil(t, store.limiter(TierPublic, "b"))
	store.cleanup()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.limiters, 1)
	assert.Contains(t, store.limiters, "public:b")
}
