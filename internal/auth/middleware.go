package auth

import (
	"context"
	"net/http"
	"strings"

	"tally/internal/ledger"
)

type ctxKey struct{}

// Middleware rejects requests without a valid bearer token and stores
// the owner ID on the request context for handlers downstream.
func Middleware(svc *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			ownerID, err := svc.VerifyToken(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), ownerID)))
		})
	}
}

// WithOwner returns a context carrying the authenticated owner ID.
func WithOwner(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, ownerID)
}

// OwnerFromContext returns the authenticated owner ID set by Middleware.
func OwnerFromContext(ctx context.Context) (string, error) {
	ownerID, ok := ctx.Value(ctxKey{}).(string)
	if !ok || ownerID == "" {
		return "", ledger.ErrUnauthenticated
	}
	return ownerID, nil
}
