package middleware

import (
	"net/http"
	"strings"

	"github.com/fablepress/fulfillment/internal/domain"
	"github.com/fablepress/fulfillment/internal/infrastructure/auth"
)

// OwnerHeader carries the caller's owner id when JWT auth is disabled. Meant
// for development and trusted internal traffic only.
const OwnerHeader = "X-Owner-ID"

// Auth verifies the bearer token and puts the owner id on the context.
func Auth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := domain.WithOwner(r.Context(), claims.OwnerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromHeader trusts the X-Owner-ID header for the owner identity. Used
// when JWT auth is disabled.
func OwnerFromHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ownerID := r.Header.Get(OwnerHeader); ownerID != "" {
			r = r.WithContext(domain.WithOwner(r.Context(), ownerID))
		}
		next.ServeHTTP(w, r)
	})
}
