package auth

import (
	"log/slog"
	"net/http"
)

// DevModeMiddleware injects a synthetic Principal with all scopes and admin role.
// Use only when AUTH_ENABLED=false (development).
func DevModeMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	logger.Warn("DEV MODE: authentication disabled, all requests get an admin principal")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), devPrincipal())))
		})
	}
}

func devPrincipal() *Principal {
	return &Principal{
		Sub: "dev-user",
		Scopes: map[string]bool{
			"openid":   true,
			ScopeRead:  true,
			ScopeWrite: true,
			ScopeAdmin: true,
		},
		Roles:    map[string]bool{RoleAdmin: true},
		ClientID: "dev",
		Issuer:   "dev",
		Email:    "dev@ontograph.dev",
	}
}
