package httpclient

import (
	"net/http"

	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
	"github.com/kbukum/reqkit/resilience"
)

// Option configures optional Client behavior.
type Option func(*Client)

// WithLogger sets the logger used for retry, cancellation and failure events.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = rt
	}
}

// WithTracing starts a span per call and per attempt and propagates the
// trace context in request headers.
func WithTracing() Option {
	return func(c *Client) {
		c.tracing = true
	}
}

// WithMetrics records attempts, retries, cancellations and call durations.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRateLimiter shares a rate limiter between clients. It takes precedence
// over Config.RateLimiter.
func WithRateLimiter(rl *resilience.RateLimiter) Option {
	return func(c *Client) {
		c.limiter = rl
	}
}
