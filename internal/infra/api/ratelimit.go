package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fetosat/daleelbalady-sub010/internal/infra/logging"
	"github.com/fetosat/daleelbalady-sub010/internal/infra/metrics"
	red "github.com/fetosat/daleelbalady-sub010/internal/infra/redis"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit caps PIN attempts per authenticated caller. A limiter error lets
// the request through.
func RateLimit(l Limiter, window time.Duration, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := IdentityFrom(r.Context())
			ok, err := l.Allow(r.Context(), red.PinAttemptKey(id.Subject))
			if err != nil {
				lg := logging.With(r.Context(), logger)
				lg.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.IncPinThrottled()
				if window > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				}
				writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "RATE_LIMITED"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
