package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/skRookies2team/Backend-Relay/internal/httputil"
)

// Authenticator is satisfied by *Gate.
type Authenticator interface {
	Authenticate(token string) (*Principal, error)
}

// Middleware returns a chi middleware that authenticates requests via Bearer
// token. Every rejection produces the same envelope; the cause is only logged.
func Middleware(gate Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := w.Header().Get("X-Request-ID")

			token, reason := bearerToken(r)
			if reason != "" {
				slog.Warn("auth failed", "request_id", reqID, "path", r.URL.Path, "reason", reason)
				httputil.WriteAuthError(w, r)
				return
			}

			principal, err := gate.Authenticate(token)
			if err != nil {
				slog.Warn("auth failed", "request_id", reqID, "path", r.URL.Path, "reason", err.Error())
				httputil.WriteAuthError(w, r)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization scheme is not bearer"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}
