package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/simple-event-calendar/server/internal/api/respond"
	"github.com/simple-event-calendar/server/internal/auth"
)

const claimsKey contextKey = "claims"

const (
	msgTokenMissing = "authentication token is missing"
	msgTokenInvalid = "invalid authentication token"
	msgTokenExpired = "authentication token has expired"
)

// RequireAuth rejects requests without a valid Bearer token. The verified
// claims are stored in the context and the user id is added to the request logger.
func RequireAuth(tokens *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			var claims *auth.Claims
			if err == nil {
				claims, err = tokens.Validate(token)
			}
			if err != nil {
				msg := msgTokenInvalid
				switch {
				case errors.Is(err, auth.ErrMissingToken):
					msg = msgTokenMissing
				case errors.Is(err, auth.ErrExpiredToken):
					msg = msgTokenExpired
				}
				respond.Fail(w, r, http.StatusUnauthorized, msg, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			logger := zerolog.Ctx(ctx).With().Int64("user_id", claims.UserID).Logger()
			ctx = logger.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}
