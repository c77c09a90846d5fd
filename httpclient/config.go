package httpclient

import (
	"slices"
	"time"

	"github.com/kbukum/reqkit/resilience"
	"github.com/kbukum/reqkit/security"
	"github.com/kbukum/reqkit/validation"
)

const (
	defaultName    = "http"
	defaultTimeout = 30 * time.Second
)

// DefaultBlockedCodes are the error codes that are never retried.
var DefaultBlockedCodes = []string{"417"}

// Config configures the HTTP client.
type Config struct {
	// Name identifies the client in logs and lifecycle summaries.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended to relative request URLs.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// Timeout bounds each attempt. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`

	// Retry is the number of re-attempts after a failed first attempt. Zero disables retry.
	Retry int `yaml:"retry" mapstructure:"retry" validate:"gte=0"`

	// RetryDelay is the fixed wait between attempts. Defaults to 50ms.
	RetryDelay time.Duration `yaml:"retry_delay" mapstructure:"retry_delay" validate:"gte=0"`

	// BlockedCodes short-circuit retry. Entries match an HTTP status ("417") or an
	// ErrorCode name ("timeout"). Nil means DefaultBlockedCodes; an empty slice blocks nothing.
	BlockedCodes []string `yaml:"blocked_codes" mapstructure:"blocked_codes"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// WithCredentials keeps a cookie jar so cookies set by the server are sent back.
	WithCredentials bool `yaml:"with_credentials" mapstructure:"with_credentials"`

	// RequestIDHeader, when set, carries the per-call ID on every attempt.
	RequestIDHeader string `yaml:"request_id_header" mapstructure:"request_id_header"`

	// Auth configures default authentication applied to all requests.
	// Individual requests can override this.
	Auth *AuthConfig `yaml:"-" mapstructure:"-" validate:"-"`

	// Interceptors run around every call made by this client.
	Interceptors Interceptors `yaml:"-" mapstructure:"-" validate:"-"`

	// RetryIf further restricts which errors are retried. Blocked codes and
	// cancellations are never retried regardless of RetryIf.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-" validate:"-"`

	// RateLimiter throttles outbound attempts. Nil disables it.
	RateLimiter *resilience.RateLimiterConfig `yaml:"rate_limiter" mapstructure:"rate_limiter"`

	// TLS customizes server verification and client certificates.
	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls" validate:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = resilience.DefaultRetryDelay
	}
	if c.BlockedCodes == nil {
		c.BlockedCodes = slices.Clone(DefaultBlockedCodes)
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	return c.TLS.Validate()
}
