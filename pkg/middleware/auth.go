package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/SbuKhoza/handy-rentals-app/internal/core/domain"
	"github.com/SbuKhoza/handy-rentals-app/internal/core/services"
)

type identityKeyType struct{}

var IdentityKey = identityKeyType{}

// IdentityFromContext returns the authenticated caller placed there by
// AuthMiddleware.
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	who, ok := ctx.Value(IdentityKey).(domain.Identity)
	return who, ok
}

func AuthMiddleware(tokenSvc *services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Websocket clients in browsers cannot set headers, so the
			// token may also ride in a query parameter.
			raw := ""
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
					return
				}
				raw = parts[1]
			} else {
				raw = r.URL.Query().Get("token")
			}
			if raw == "" {
				http.Error(w, "Authorization required", http.StatusUnauthorized)
				return
			}
			who, err := tokenSvc.ParseIdentity(raw)
			if err != nil {
				http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), IdentityKey, who)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
