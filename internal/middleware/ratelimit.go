package middleware

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/eventstats-api/internal/analytics"
	"github.com/serroba/eventstats-api/internal/ratelimit"
	"go.uber.org/zap"
)

// Rate limit response headers.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderRetryAfter = "Retry-After"
)

// EventRecorder receives rejected admissions. Record must not block.
type EventRecorder interface {
	Record(event *analytics.RateLimitedEvent) bool
}

// RateLimitConfig wires the collaborators of the RateLimiter middleware.
type RateLimitConfig struct {
	Key       KeyFunc
	Algorithm ratelimit.Algorithm
	// Recorder is optional.
	Recorder EventRecorder
	Logger   *zap.Logger
}

// RateLimiter returns a router middleware that admits or rejects every request
// according to limiter, keyed by cfg.Key. It runs ahead of routing, so
// requests for unknown paths are counted too.
func RateLimiter(limiter ratelimit.Limiter, cfg RateLimitConfig) func(next http.Handler) http.Handler {
	if cfg.Key == nil {
		cfg.Key = IPKey(false)
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cfg.Key(r)

			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				cfg.Logger.Error("rate limit check failed", zap.String("path", r.URL.Path), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "internal server error")

				return
			}

			w.Header().Set(HeaderLimit, strconv.Itoa(decision.Limit))
			w.Header().Set(HeaderRemaining, strconv.Itoa(decision.Remaining))

			if decision.Allowed {
				next.ServeHTTP(w, r)

				return
			}

			w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))

			meta := MetaFromContext(r.Context())

			cfg.Logger.Warn("rate limit exceeded",
				zap.String("request_id", meta.RequestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("client_key", key),
				zap.Int("limit", decision.Limit),
				zap.Duration("retry_after", decision.RetryAfter),
			)

			if cfg.Recorder != nil {
				cfg.Recorder.Record(&analytics.RateLimitedEvent{
					RequestID:  meta.RequestID,
					ClientKey:  key,
					ClientIP:   meta.ClientIP,
					UserAgent:  meta.UserAgent,
					Method:     r.Method,
					Path:       r.URL.Path,
					Algorithm:  string(cfg.Algorithm),
					Limit:      decision.Limit,
					RetryAfter: decision.RetryAfter,
					OccurredAt: time.Now().UTC(),
				})
			}

			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		})
	}
}

// writeError renders the same problem document huma uses for operation errors.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(huma.NewError(status, msg))
}

// retryAfterSeconds rounds up to whole seconds, never below one.
func retryAfterSeconds(d time.Duration) int {
	return max(int(math.Ceil(d.Seconds())), 1)
}
