package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/ratelimit"
)

var errRateLimited = errors.New("rate limit exceeded, retry later")

// RateLimitInterceptor rejects RPCs once the caller's bucket is empty.
// It keys on the authenticated user and must run after RequireAuth;
// unauthenticated calls fall back to the peer address. m may be nil.
func RateLimitInterceptor(limiter *ratelimit.Limiter, m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			key := GetUserID(ctx)
			if key == "" {
				key = req.Peer().Addr
			}
			if !limiter.Allow(key) {
				procedure := req.Spec().Procedure
				slog.Warn("Rate limit exceeded", "key", key, "procedure", procedure)
				if m != nil {
					m.IncrRateLimited(procedure)
				}
				return nil, connect.NewError(connect.CodeResourceExhausted, errRateLimited)
			}
			return next(ctx, req)
		}
	}
}

// RateLimit is the net/http counterpart of RateLimitInterceptor.
func RateLimit(limiter *ratelimit.Limiter, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetUserID(r.Context())
			if key == "" {
				key = r.RemoteAddr
			}
			if !limiter.Allow(key) {
				slog.Warn("Rate limit exceeded", "key", key, "path", r.URL.Path)
				if m != nil {
					m.IncrRateLimited(r.URL.Path)
				}
				WriteError(w, connect.NewError(connect.CodeResourceExhausted, errRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
