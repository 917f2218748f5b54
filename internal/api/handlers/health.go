package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/simple-event-calendar/server/internal/api/respond"
)

// CheckResult is the outcome of a single readiness check.
type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

// Pinger is satisfied by storage.Repository.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SchemaVersionFunc reports the applied migration version and dirty flag.
type SchemaVersionFunc func() (uint, bool, error)

// HealthChecker serves liveness and readiness probes.
type HealthChecker struct {
	db            Pinger
	schemaVersion SchemaVersionFunc
	version       string
	gitCommit     string
	timeout       time.Duration
}

func NewHealthChecker(db Pinger, schemaVersion SchemaVersionFunc, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		db:            db,
		schemaVersion: schemaVersion,
		version:       version,
		gitCommit:     gitCommit,
		timeout:       2 * time.Second,
	}
}

// Healthz reports that the process is serving.
func (h *HealthChecker) Healthz(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, "ok", respond.Payload{
		"version":    h.version,
		"git_commit": h.gitCommit,
	})
}

// Readyz checks the database and the migration state. Any failing check
// answers 503.
func (h *HealthChecker) Readyz(w http.ResponseWriter, r *http.Request) {
	select {
	case <-r.Context().Done():
		respond.JSON(w, http.StatusServiceUnavailable, "shutting down", nil)
		return
	default:
	}

	checks := map[string]CheckResult{
		"database": h.checkDatabase(r.Context()),
	}
	if h.schemaVersion != nil {
		checks["migrations"] = h.checkMigrations()
	}

	status, msg := http.StatusOK, "ready"
	for _, check := range checks {
		if check.Status == "fail" {
			status, msg = http.StatusServiceUnavailable, "not ready"
			break
		}
	}
	respond.JSON(w, status, msg, respond.Payload{
		"checks":    checks,
		"version":   h.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.db == nil {
		return CheckResult{Status: "fail", Message: "database not initialized"}
	}
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		msg := "database ping failed"
		if ctx.Err() == context.DeadlineExceeded {
			msg = "database ping timed out"
		}
		return CheckResult{Status: "fail", Message: msg, LatencyMs: latency}
	}
	return CheckResult{Status: "pass", LatencyMs: latency}
}

func (h *HealthChecker) checkMigrations() CheckResult {
	start := time.Now()
	version, dirty, err := h.schemaVersion()
	latency := time.Since(start).Milliseconds()
	switch {
	case err != nil:
		return CheckResult{Status: "fail", Message: "failed to read migration version", LatencyMs: latency}
	case dirty:
		return CheckResult{Status: "fail", Message: "database in dirty migration state", LatencyMs: latency}
	case version == 0:
		return CheckResult{Status: "fail", Message: "no migrations applied", LatencyMs: latency}
	}
	return CheckResult{Status: "pass", LatencyMs: latency}
}
