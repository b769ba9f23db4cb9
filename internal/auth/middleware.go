package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/maraichr/ontograph/pkg/apierr"
)

func writeAuthError(w http.ResponseWriter, e *apierr.Error) {
	w.Header().Set("Content-Type", "application/json")
	if e.Status() == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="ontograph"`)
	}
	w.WriteHeader(e.Status())
	json.NewEncoder(w).Encode(e.Response())
}

// RequireAuth validates the bearer token and injects the Principal into the
// request context.
func RequireAuth(verifier *Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := verifier.VerifyRequest(r)
			if err != nil {
				logger.Warn("auth failed", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
				writeAuthError(w, apierr.Unauthorized())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireScope lets the request through when the Principal holds any of the
// scopes. Admins always pass.
func RequireScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				writeAuthError(w, apierr.Unauthorized())
				return
			}
			if !p.Allows(scopes...) {
				writeAuthError(w, apierr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
