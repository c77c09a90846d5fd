// Package resilience provides the retry and throttling policies used by the
// HTTP client.
//
//   - Retry: re-runs a failed operation a bounded number of times with a
//     fixed delay between attempts.
//   - RateLimiter: token bucket throttle for outbound calls.
//
// Example:
//
//	rl := resilience.NewRateLimiter(resilience.RateLimiterConfig{Rate: 20, Burst: 5})
//	body, err := resilience.Retry(ctx, resilience.RetryConfig{MaxRetries: 2, Delay: 10 * time.Millisecond},
//	    func(attempt int) ([]byte, error) {
//	        if err := rl.Wait(ctx); err != nil {
//	            return nil, err
//	        }
//	        return fetch(ctx)
//	    })
package resilience
