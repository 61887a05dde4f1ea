package auth

import (
	"context"
	"net/http"

	"github.com/lamarea/storefront/pkg/httpx"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing session claims in context
	UserContextKey contextKey = "user"
)

// SessionMiddleware validates the session cookie and injects claims into context
func SessionMiddleware(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := GetSessionCookie(r)
			if err != nil || token == "" {
				httpx.WriteUnauthorized(w, "Authentication required")
				return
			}

			claims, err := tm.ValidateSessionToken(token)
			if err != nil {
				httpx.WriteUnauthorized(w, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the session claims set by SessionMiddleware, or nil
func GetUserFromContext(r *http.Request) *SessionClaims {
	claims, ok := r.Context().Value(UserContextKey).(*SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
