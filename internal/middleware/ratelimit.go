package middleware

import (
	"context"
	"errors"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// RateLimitInterceptor limits the listed procedures to perMinute calls per
// minute across all callers, with a burst of the same size. Other procedures
// pass through. A non-positive limit disables limiting.
func RateLimitInterceptor(perMinute int, procedures ...string) connect.UnaryInterceptorFunc {
	limited := make(map[string]bool, len(procedures))
	for _, p := range procedures {
		limited[p] = true
	}
	var limiter *rate.Limiter
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	}

	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if limiter != nil && limited[req.Spec().Procedure] && !limiter.Allow() {
				return nil, connect.NewError(connect.CodeResourceExhausted, errors.New("too many requests, try again in a minute"))
			}
			return next(ctx, req)
		}
	}
}
