package api

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/simple-event-calendar/server/internal/api/handlers"
	"github.com/simple-event-calendar/server/internal/api/middleware"
	"github.com/simple-event-calendar/server/internal/api/respond"
	"github.com/simple-event-calendar/server/internal/audit"
	"github.com/simple-event-calendar/server/internal/auth"
	"github.com/simple-event-calendar/server/internal/config"
	"github.com/simple-event-calendar/server/internal/domain/events"
	"github.com/simple-event-calendar/server/internal/domain/users"
	"github.com/simple-event-calendar/server/internal/metrics"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Config      config.Config
	Logger      zerolog.Logger
	Users       *users.Service
	Events      *events.Service
	Tokens      *auth.JWTManager
	Health      *handlers.HealthChecker
	RateLimiter *middleware.RateLimiter
	Version     string
	GitCommit   string
	BuildDate   string
}

// apiPrefixes mounts every route both at the root, where the existing
// front-end calls it, and under the versioned prefix.
var apiPrefixes = []string{"", "/api/v1"}

// NewRouter wires routes and the middleware chain. The caller owns and stops d.RateLimiter.
func NewRouter(d Deps) http.Handler {
	eventsHandler := handlers.NewEventsHandler(d.Events)
	usersHandler := handlers.NewUsersHandler(d.Users)

	requireAuth := middleware.RequireAuth(d.Tokens)

	routes := []struct {
		pattern string
		tier    middleware.RateLimitTier
		handler http.HandlerFunc
	}{
		{"GET /events", middleware.TierPublic, eventsHandler.List},
		{"POST /events", middleware.TierAuthenticated, eventsHandler.Create},
		{"GET /events/{id}", middleware.TierPublic, eventsHandler.Get},
		{"DELETE /events/{id}", middleware.TierAuthenticated, eventsHandler.Delete},
		{"POST /events/add-user-event", middleware.TierAuthenticated, eventsHandler.AddParticipant},
		{"POST /events/participants", middleware.TierPublic, eventsHandler.ListParticipants},
		{"POST /events/events-participant", middleware.TierPublic, eventsHandler.ListEventsForUser},
		{"POST /events/confirm", middleware.TierAuthenticated, eventsHandler.Confirm},
		{"POST /events/create-comment", middleware.TierAuthenticated, eventsHandler.CreateComment},
		{"POST /events/comments", middleware.TierPublic, eventsHandler.ListComments},
		{"POST /user/signup", middleware.TierLogin, usersHandler.Signup},
		{"POST /user/login", middleware.TierLogin, usersHandler.Login},
		{"POST /user/reset-password", middleware.TierLogin, usersHandler.ResetPassword},
		{"POST /user/update-password", middleware.TierLogin, usersHandler.UpdatePassword},
	}

	mux := http.NewServeMux()
	for _, route := range routes {
		var h http.Handler = route.handler
		if route.tier == middleware.TierAuthenticated {
			h = requireAuth(h)
		}
		h = middleware.WithRateLimitTierHandler(route.tier)(d.RateLimiter.Middleware(h))

		method, path, _ := strings.Cut(route.pattern, " ")
		for _, prefix := range apiPrefixes {
			mux.Handle(method+" "+prefix+path, h)
		}
	}

	mux.HandleFunc("GET /healthz", d.Health.Healthz)
	mux.HandleFunc("GET /readyz", d.Health.Readyz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("GET /version", VersionHandler(d.Version, d.GitCommit, d.BuildDate))
	mux.Handle("GET /api/v1/openapi.json", OpenAPIHandler())
	mux.HandleFunc("/", notFound)

	// Tracing and metrics read r.Pattern after the mux has matched, so nothing
	// between them and the mux may copy the request.
	var handler http.Handler = metrics.HTTPMiddleware(mux)
	handler = middleware.Tracing(handler)
	handler = middleware.RequestSize(middleware.DefaultMaxBodySize)(handler)
	handler = audit.Middleware(handler)
	handler = middleware.CORS(d.Config.CORS, d.Logger)(handler)
	handler = middleware.SecurityHeaders(d.Config.Environment == "production")(handler)
	handler = middleware.Recovery(handler)
	handler = middleware.RequestLogging()(handler)
	handler = middleware.CorrelationID(d.Logger)(handler)
	return handler
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusNotFound, "route not found", nil)
}
