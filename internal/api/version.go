package api

import (
	"net/http"
	"runtime"

	"github.com/simple-event-calendar/server/internal/api/respond"
)

// VersionHandler reports build metadata set through ldflags.
func VersionHandler(version, gitCommit, buildDate string) http.Handler {
	if version == "" {
		version = "dev"
	}
	if gitCommit == "" {
		gitCommit = "unknown"
	}
	if buildDate == "" {
		buildDate = "unknown"
	}
	payload := respond.Payload{
		"version":    version,
		"git_commit": gitCommit,
		"build_date": buildDate,
		"go_version": runtime.Version(),
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond.OK(w, "ok", payload)
	})
}
