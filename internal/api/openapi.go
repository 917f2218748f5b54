package api

import (
	"net/http"

	"github.com/simple-event-calendar/server/internal/api/contracts"
	"github.com/simple-event-calendar/server/internal/api/respond"
)

// OpenAPIHandler serves the embedded API description as JSON.
func OpenAPIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			respond.JSON(w, http.StatusMethodNotAllowed, "method not allowed", nil)
			return
		}

		data, err := contracts.OpenAPIJSON()
		if err != nil {
			respond.Fail(w, r, http.StatusInternalServerError, "openapi unavailable", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
