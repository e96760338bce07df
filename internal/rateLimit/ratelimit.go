package rateLimit

import (
	"context"
	"time"

	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
)

// Counter counts hits on key inside a fixed window.
type Counter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

type RateLimiter struct {
	counter Counter
	logger  observability.Logger
}

func NewRateLimiter(counter Counter, logger observability.Logger) *RateLimiter {
	return &RateLimiter{counter: counter, logger: logger}
}

// Allow reports whether key is still under rate for the current period. When
// the counter backend is unreachable requests are let through.
func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	n, err := rl.counter.IncrWindow(ctx, "rl:"+key, period)
	if err != nil {
		rl.logger.Warn("rate limiter unavailable: ", err)
		return true
	}
	if n > int64(rate) {
		observability.RateLimitExceeded.Inc()
		return false
	}
	return true
}
