package middleware

import (
	"chathub/internal/core/domain"
	"context"
	"net/http"
	"strings"
)

type identityKeyType struct{}

var IdentityKey = identityKeyType{}

// Authenticator is implemented by the token service; declared here so the
// middleware does not import the service layer.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Identity, error)
}

// IdentityFromContext returns the admitted identity, if any.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*domain.Identity)
	return identity, ok
}

// AuthMiddleware resolves the presented credential to an identity before
// the connection reaches the hub. A rejection terminates the attempt with
// no state created. Browser WebSocket clients cannot set headers, so the
// token is also accepted as a query parameter.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.URL.Query().Get("token")
			if token == "" {
				authHeader := r.Header.Get("Authorization")
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					token = parts[1]
				}
			}
			identity, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				status := http.StatusUnauthorized
				if domain.ErrorCode(err) == domain.CodeStoreFailure {
					status = http.StatusServiceUnavailable
				}
				http.Error(w, "Unauthorized: "+err.Error(), status)
				return
			}
			ctx := context.WithValue(r.Context(), IdentityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
