package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/kilnlog/kilnlog"
)

type contextKey int

const identityKey contextKey = iota

// AuthMiddleware creates middleware that resolves the bearer token to a
// caller identity and stores it on the request context. Requests without a
// resolvable token are rejected.
func AuthMiddleware(provider kilnlog.TokenProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
				return
			}

			ident, err := provider.Resolve(token)
			if err != nil {
				HandleError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(auth, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}
	return token, true
}

// IdentityFromContext returns the identity stored by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (kilnlog.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(kilnlog.Identity)
	return ident, ok
}

// MustIdentity returns the request identity; it is only called from handlers
// behind AuthMiddleware, so a missing identity is a wiring bug.
func MustIdentity(ctx context.Context) kilnlog.Identity {
	ident, ok := IdentityFromContext(ctx)
	if !ok {
		panic("identity missing from request context")
	}
	return ident
}
