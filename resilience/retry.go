package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultRetryDelay is used when RetryConfig.Delay is not positive.
const DefaultRetryDelay = 50 * time.Millisecond

// RetryConfig configures a bounded, fixed-delay retry policy.
type RetryConfig struct {
	// MaxRetries is the number of re-attempts after the first call.
	// Zero or negative disables retry.
	MaxRetries int
	// Delay is the fixed wait between attempts. Defaults to DefaultRetryDelay.
	Delay time.Duration
	// RetryIf decides whether an error may be retried. Defaults to DefaultRetryIf.
	RetryIf func(error) bool
	// OnRetry is called before each wait with the number of the retry about to run.
	OnRetry func(retry int, err error, delay time.Duration)
}

// DefaultRetryIf retries all errors except context cancellation.
func DefaultRetryIf(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retry runs fn until it succeeds, the error is not retryable, or
// cfg.MaxRetries retries have been made; so fn runs at most MaxRetries+1 times.
// fn receives the retry counter: 0 on the first attempt, 1 on the first retry.
// The last error is returned unchanged.
func Retry[T any](ctx context.Context, cfg RetryConfig, fn func(retry int) (T, error)) (T, error) {
	var zero T

	if cfg.Delay <= 0 {
		cfg.Delay = DefaultRetryDelay
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = DefaultRetryIf
	}

	for retry := 0; ; retry++ {
		result, err := fn(retry)
		if err == nil {
			return result, nil
		}
		if retry >= cfg.MaxRetries || !cfg.RetryIf(err) {
			return zero, err
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(retry+1, err, cfg.Delay)
		}

		if waitErr := Sleep(ctx, cfg.Delay); waitErr != nil {
			return zero, waitErr
		}
	}
}

// RetryFunc executes a function that returns only an error.
func RetryFunc(ctx context.Context, cfg RetryConfig, fn func(retry int) error) error {
	_, err := Retry(ctx, cfg, func(retry int) (struct{}, error) {
		return struct{}{}, fn(retry)
	})
	return err
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
