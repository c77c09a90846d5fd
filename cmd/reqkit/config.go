package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/reqkit/config"
	"github.com/kbukum/reqkit/httpclient"
)

// appConfig is the reqkit.yml layout.
type appConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Client               httpclient.Config `yaml:"client" mapstructure:"client"`
	Telemetry            telemetryConfig   `yaml:"telemetry" mapstructure:"telemetry"`
	Concurrency          int               `yaml:"concurrency" mapstructure:"concurrency"`
}

type telemetryConfig struct {
	// Endpoint is the OTLP HTTP collector host:port. Empty disables telemetry.
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// flagValues holds command-line overrides. Only flags the user set are applied.
type flagValues struct {
	configFile   string
	baseURL      string
	timeout      time.Duration
	retry        int
	retryDelay   time.Duration
	headers      []string
	logLevel     string
	otlpEndpoint string
	concurrency  int
	envelope     bool
}

func (f *flagValues) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configFile, "config", "c", "", "config file (default: reqkit.yml, config/reqkit.yml or config.yml)")
	fs.StringVar(&f.baseURL, "base-url", "", "prefix for relative URLs")
	fs.DurationVar(&f.timeout, "timeout", 30*time.Second, "per-attempt timeout")
	fs.IntVar(&f.retry, "retry", 0, "retries after a failed first attempt")
	fs.DurationVar(&f.retryDelay, "retry-delay", 50*time.Millisecond, "fixed delay between attempts")
	fs.StringArrayVarP(&f.headers, "header", "H", nil, "request header as 'Name: value' (repeatable)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&f.otlpEndpoint, "otlp-endpoint", "", "OTLP HTTP collector host:port for traces and metrics")
	fs.IntVar(&f.concurrency, "concurrency", 4, "maximum requests in flight")
	fs.BoolVar(&f.envelope, "envelope", false, "unwrap {errorInfo, result} response envelopes")
}

// loadConfig reads the config file and environment, then applies the flags
// the user set explicitly.
func loadConfig(fs *pflag.FlagSet, f *flagValues) (*appConfig, error) {
	var cfg appConfig
	opts := []config.LoaderOption{
		config.WithDefaults(map[string]any{
			"name":                  "reqkit",
			"client.name":           "reqkit",
			"concurrency":           f.concurrency,
			"client.timeout":        f.timeout,
			"client.retry_delay":    f.retryDelay,
			"telemetry.insecure":    true,
			"telemetry.sample_rate": 1.0,
		}),
	}
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		opts = append(opts, config.WithHomeDir(home))
	}
	if err := config.Load("reqkit", &cfg, opts...); err != nil {
		return nil, err
	}

	changed := map[string]bool{}
	fs.Visit(func(fl *pflag.Flag) { changed[fl.Name] = true })

	if changed["base-url"] {
		cfg.Client.BaseURL = f.baseURL
	}
	if changed["timeout"] {
		cfg.Client.Timeout = f.timeout
	}
	if changed["retry"] {
		cfg.Client.Retry = f.retry
	}
	if changed["retry-delay"] {
		cfg.Client.RetryDelay = f.retryDelay
	}
	if changed["log-level"] {
		cfg.Logging.Level = f.logLevel
	}
	if changed["otlp-endpoint"] {
		cfg.Telemetry.Endpoint = f.otlpEndpoint
	}
	if changed["concurrency"] {
		cfg.Concurrency = f.concurrency
	}
	if len(f.headers) > 0 {
		if cfg.Client.Headers == nil {
			cfg.Client.Headers = make(map[string]string, len(f.headers))
		}
		for _, h := range f.headers {
			name, value, ok := strings.Cut(h, ":")
			if !ok || strings.TrimSpace(name) == "" {
				return nil, fmt.Errorf("invalid header %q, want 'Name: value'", h)
			}
			cfg.Client.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
		}
	}

	cfg.ApplyDefaults()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Client.ApplyDefaults()
	if err := cfg.Client.Validate(); err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	return &cfg, nil
}
