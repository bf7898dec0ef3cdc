// internal/identity/middleware.go
package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"libris/internal/httpx"
)

type contextKey struct{}

var userIDKey contextKey

// UserIDFromContext returns the verified user ID stashed by RequireAuth.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// RequireAuth extracts the bearer credential, resolves it through the
// Verifier and stores the user ID in the request context. Requests without
// a valid credential get a 401 and never reach the handler.
func RequireAuth(verifier Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				httpx.Message(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}

			userID, err := verifier.Verify(r.Context(), token)
			if err != nil {
				httpx.Message(w, http.StatusUnauthorized, "missing or invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
