package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simple-event-calendar/server/internal/auth"
)

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewJWTManager("test-secret-0123456789abcdef0123456789", time.Hour, "test")
	expired := auth.NewJWTManager("test-secret-0123456789abcdef0123456789", -time.Minute, "test")

	valid, err := tokens.Generate(7, "ana@example.com")
	require.NoError(t, err)
	stale, err := expired.Generate(7, "ana@example.com")
	require.NoError(t, err)

	var gotClaims *auth.Claims
	handler := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{name: "valid token", header: "Bearer " + valid, status: http.StatusOK},
		{name: "missing header", header: "", status: http.StatusUnauthorized, msg: msgTokenMissing},
		{name: "wrong scheme", header: "Basic " + valid, status: http.StatusUnauthorized, msg: msgTokenMissing},
		{name: "garbage token", header: "Bearer nope", status: http.StatusUnauthorized, msg: msgTokenInvalid},
		{name: "expired token", header: "Bearer " + stale, status: http.StatusUnauthorized, msg: msgTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotClaims = nil
			req := httptest.NewRequest(http.MethodGet, "/my-events", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, gotClaims)
				assert.Equal(t, int64(7), gotClaims.UserID)
				assert.Equal(t, "ana@example.com", gotClaims.Email)
				return
			}
			assert.Nil(t, gotClaims)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.msg, body["msg"])
			assert.Equal(t, true, body["err"])
		})
	}
}

func TestClaimsFromContextEmpty(t *testing.T) {
	_, ok := ClaimsFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
