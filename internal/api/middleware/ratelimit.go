package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/simple-event-calendar/server/internal/api/respond"
	"github.com/simple-event-calendar/server/internal/config"
)

type RateLimitTier string

const (
	TierPublic        RateLimitTier = "public"
	TierAuthenticated RateLimitTier = "authenticated"
	// TierLogin covers signup, login and the password reset endpoints.
	TierLogin RateLimitTier = "login"
)

const (
	loginRefill  = 3 * time.Minute
	limiterTTL   = 15 * time.Minute
	cleanupEvery = 5 * time.Minute
)

const rateLimitTierKey contextKey = "rateLimitTier"

func WithRateLimitTier(ctx context.Context, tier RateLimitTier) context.Context {
	return context.WithValue(ctx, rateLimitTierKey, tier)
}

// WithRateLimitTierHandler selects the tier RateLimit applies further down the chain.
func WithRateLimitTierHandler(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithRateLimitTier(r.Context(), tier)))
		})
	}
}

// RateLimiter keeps one token bucket per tier and client address.
type RateLimiter struct {
	store   *limiterStore
	proxies []*net.IPNet
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		store:   newLimiterStore(cfg),
		proxies: parseCIDRs(cfg.TrustedProxyCIDRs),
	}
}

// Middleware rejects requests over the tier's budget with 429 and Retry-After.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tier := TierPublic
		if value, ok := r.Context().Value(rateLimitTierKey).(RateLimitTier); ok {
			tier = value
		}

		limiter := l.store.limiter(tier, clientKey(r, l.proxies))
		if limiter == nil || limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}

		retryAfter := time.Minute
		if tier == TierLogin {
			retryAfter = loginRefill
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respond.JSON(w, http.StatusTooManyRequests, "too many requests", nil)
	})
}

// Stop ends the background cleanup.
func (l *RateLimiter) Stop() {
	l.store.Stop()
}

type limiterStore struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	perWindow   map[RateLimitTier]int
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		perWindow: map[RateLimitTier]int{
			TierPublic:        cfg.PublicPerMinute,
			TierAuthenticated: cfg.AuthenticatedPerMinute,
			TierLogin:         cfg.LoginPer15Minutes,
		},
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go store.cleanupLoop()
	return store
}

// limiter returns nil when the tier is unlimited.
func (s *limiterStore) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := s.perWindow[tier]
	if limit <= 0 {
		return nil
	}
	lookup := string(tier) + ":" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[lookup]; ok {
		entry.lastSeen = s.now()
		return entry.limiter
	}

	// Login allows a burst of limit, refilled one token every 3 minutes.
	every := time.Minute / time.Duration(limit)
	if tier == TierLogin {
		every = loginRefill
	}
	limiter := rate.NewLimiter(rate.Every(every), limit)
	s.limiters[lookup] = &limiterEntry{limiter: limiter, lastSeen: s.now()}
	return limiter
}

func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
}

// clientKey trusts X-Forwarded-For and X-Real-IP only from configured proxies.
func clientKey(r *http.Request, trusted []*net.IPNet) string {
	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if isTrustedProxy(remoteIP, trusted) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
	}
	return remoteIP
}

func isTrustedProxy(ip string, trusted []*net.IPNet) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, cidr := range trusted {
		if cidr.Contains(parsed) {
			return true
		}
	}
	return false
}

func parseCIDRs(values []string) []*net.IPNet {
	var out []*net.IPNet
	for _, value := range values {
		if _, cidr, err := net.ParseCIDR(strings.TrimSpace(value)); err == nil {
			out = append(out, cidr)
		}
	}
	return out
}
