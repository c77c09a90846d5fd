package resilience

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by Wait when the next token would arrive after
// the context deadline.
var ErrRateLimited = errors.New("rate limit exceeded")

const defaultRate = 10.0

// RateLimiterConfig sizes an outbound token bucket.
type RateLimiterConfig struct {
	// Rate is the sustained number of attempts per second. Zero means 10.
	Rate float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	// Burst is the bucket size. Zero means max(Rate, 1).
	Burst int `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// RateLimiter throttles outbound attempts with a token bucket.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter with a full bucket.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Rate <= 0 {
		cfg.Rate = defaultRate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(int(cfg.Rate), 1)
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)}
}

// Allow takes a token if one is available now.
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

// Wait blocks until a token is available. It returns the context error when
// ctx ends first, and ErrRateLimited when the deadline is too close to wait.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	err := rl.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%w: %v", ErrRateLimited, err)
}

// Tokens reports how many tokens are available now.
func (rl *RateLimiter) Tokens() float64 {
	return rl.limiter.Tokens()
}

// Limit returns the effective rate and burst.
func (rl *RateLimiter) Limit() (float64, int) {
	return float64(rl.limiter.Limit()), rl.limiter.Burst()
}
