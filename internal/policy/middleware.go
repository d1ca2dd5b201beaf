package policy

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/skRookies2team/Backend-Relay/internal/auth"
	"github.com/skRookies2team/Backend-Relay/internal/httputil"
	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
)

// Authorizer decides whether a principal may run an operation.
type Authorizer interface {
	Allow(ctx context.Context, principal, operation string) (bool, error)
}

// Middleware returns a per-operation constructor that rejects denied requests
// with an access-denied envelope. Evaluation errors deny. A nil authorizer
// allows everything.
func Middleware(authz Authorizer, metrics *telemetry.Metrics) func(operation string) func(http.Handler) http.Handler {
	return func(operation string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			if authz == nil {
				return next
			}
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var principal string
				if p, ok := auth.PrincipalFromContext(r.Context()); ok {
					principal = p.ID
				}

				allowed, err := authz.Allow(r.Context(), principal, operation)
				if err != nil {
					slog.Error("policy evaluation failed", "operation", operation, "error", err)
				}
				if err != nil || !allowed {
					if metrics != nil {
						metrics.RecordPolicyDeny(operation)
					}
					slog.Warn("request denied by policy", "operation", operation, "principal", principal)
					httputil.WriteAccessDeniedError(w, r)
					return
				}
				next.ServeHTTP(w, r)
			})
		}
	}
}
