package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var errNoToken = errors.New("auth: no bearer token")

// contextKey is unexported so only this package can read or write the
// resolved identity in a request context.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth enforces authentication. It reads the bearer token from the
// Authorization header, validates it, and stores the resolved Identity in
// the request context. Missing or invalid credentials end the request with
// 401. Used on every write path and on owner-scoped listings.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolveIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"ok":false,"error":"Unauthorized"}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth resolves the identity if a valid bearer token is present but
// degrades silently to anonymous otherwise. Used on reads whose visibility
// still depends on who is asking (a draft fetched by its author).
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, err := resolveIdentity(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext returns the resolved identity for the request.
// ok is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.ID != ""
}

// resolveIdentity extracts and validates the "Authorization: Bearer <jwt>"
// header. Shared by RequireAuth and OptionalAuth.
func resolveIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return Identity{}, errNoToken
	}
	return tokens.Validate(strings.TrimPrefix(header, prefix))
}
