package middleware

import (
	"context"
	"net/http"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-ID"

type metaKey struct{}

// Meta holds HTTP request metadata for logging and analytics.
type Meta struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

// ContextWithMeta adds request metadata to context.
func ContextWithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, meta)
}

// MetaFromContext extracts request metadata from context.
func MetaFromContext(ctx context.Context) Meta {
	if v, ok := ctx.Value(metaKey{}).(Meta); ok {
		return v
	}

	return Meta{}
}

// RequestMeta is a middleware that assigns a request id and adds client IP and
// user-agent to the request context. The id is echoed in the response.
func RequestMeta(newID func() string, trustProxy bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			meta := Meta{
				RequestID: newID(),
				ClientIP:  clientIP(r, trustProxy),
				UserAgent: r.UserAgent(),
			}

			w.Header().Set(RequestIDHeader, meta.RequestID)

			next.ServeHTTP(w, r.WithContext(ContextWithMeta(r.Context(), meta)))
		})
	}
}
