package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue keys are compared by type AND value. With a plain string
// key any package could read or shadow the value; a package-private type
// means only this package can touch userID entries in the context.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth is a middleware that enforces authentication on protected
// routes.
//
// It reads the token from the "Authorization: Bearer <token>" header,
// validates it, and stores the userID in the request context. A missing,
// malformed, expired, or tampered token stops the chain with 401 — the
// response body matches the standard error shape the rest of the API uses.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			// Store userID in context so handlers can read it
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context.
//
// Returns ("", false) if the request is anonymous (no valid token present).
//
// Usage in handlers:
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID pulls the bearer token out of the Authorization header and
// validates it.
//
// Header format: "Authorization: Bearer eyJhbGciOi..."
// The "Bearer " prefix check is case-insensitive per RFC 6750.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errors.New("auth: missing bearer token")
	}

	return tokens.Validate(strings.TrimSpace(header[len(prefix):]))
}
