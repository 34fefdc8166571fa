/*
middleware.go - Bearer-token authentication middleware

PURPOSE:
  Verifies the Authorization header on protected routes and places the
  resulting fuelup.Identity in the request context. Handlers read it back
  with IdentityFrom; the core only ever sees the identity, never the
  token.
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/tsanders-rh/boat-fuel-tracker/auth"
	"github.com/tsanders-rh/boat-fuel-tracker/fuelup"
)

type contextKey string

const identityKey contextKey = "identity"

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
				return
			}

			identity, err := issuer.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token", nil)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom returns the authenticated identity placed by RequireAuth.
func IdentityFrom(ctx context.Context) (fuelup.Identity, bool) {
	id, ok := ctx.Value(identityKey).(fuelup.Identity)
	return id, ok
}
