package ratelimit

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/skRookies2team/Backend-Relay/internal/auth"
	"github.com/skRookies2team/Backend-Relay/internal/httputil"
	"github.com/skRookies2team/Backend-Relay/internal/telemetry"
)

const (
	headerRateLimitRequests          = "X-RateLimit-Limit-Requests"
	headerRateLimitRemainingRequests = "X-RateLimit-Remaining-Requests"
	headerRateLimitReset             = "X-RateLimit-Reset-Requests"
	headerRetryAfter                 = "Retry-After"
)

// Middleware enforces rpm requests per minute for each authenticated
// principal. It must run after auth.Middleware.
func Middleware(limiter *Limiter, rpm int, metrics *telemetry.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			result, _ := limiter.Check(r.Context(), "rpm:"+principal.ID, int64(rpm), time.Minute)

			w.Header().Set(headerRateLimitRequests, strconv.Itoa(rpm))
			w.Header().Set(headerRateLimitRemainingRequests, strconv.FormatInt(result.Remaining, 10))
			w.Header().Set(headerRateLimitReset, result.ResetAt.UTC().Format(time.RFC3339))

			if !result.Allowed {
				slog.Warn("rate limit exceeded",
					"request_id", httputil.RequestIDFromContext(r.Context()),
					"principal", principal.ID,
					"limit", rpm,
				)
				if metrics != nil {
					metrics.RecordRateLimitHit()
				}
				retry := int(math.Ceil(result.RetryAfter.Seconds()))
				w.Header().Set(headerRetryAfter, strconv.Itoa(max(retry, 1)))
				httputil.WriteRateLimitError(w, r,
					fmt.Sprintf("Rate limit exceeded: %d requests per minute. Retry after %s", rpm, result.ResetAt.UTC().Format(time.RFC3339)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
