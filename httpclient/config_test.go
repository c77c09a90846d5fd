package httpclient

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/resilience"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Name != "http" {
		t.Errorf("expected name http, got %q", cfg.Name)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.Timeout)
	}
	if cfg.RetryDelay != resilience.DefaultRetryDelay {
		t.Errorf("expected default retry delay, got %v", cfg.RetryDelay)
	}
	if cfg.Retry != 0 {
		t.Errorf("expected retry disabled by default, got %d", cfg.Retry)
	}
	if !slices.Equal(cfg.BlockedCodes, []string{"417"}) {
		t.Errorf("expected default blocked codes, got %v", cfg.BlockedCodes)
	}

	cfg.BlockedCodes[0] = "500"
	if DefaultBlockedCodes[0] != "417" {
		t.Error("ApplyDefaults must not alias DefaultBlockedCodes")
	}
}

func TestConfig_ApplyDefaultsKeepsValues(t *testing.T) {
	cfg := Config{Name: "api", Timeout: time.Second, RetryDelay: time.Second, BlockedCodes: []string{}}
	cfg.ApplyDefaults()
	if cfg.Name != "api" || cfg.Timeout != time.Second || cfg.RetryDelay != time.Second {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
	if len(cfg.BlockedCodes) != 0 {
		t.Errorf("empty blocklist should stay empty, got %v", cfg.BlockedCodes)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"valid", Config{Timeout: time.Second}, ""},
		{"zero timeout", Config{}, "timeout"},
		{"negative retry", Config{Timeout: time.Second, Retry: -1}, "retry"},
		{"negative delay", Config{Timeout: time.Second, RetryDelay: -time.Second}, "retry_delay"},
		{"bad base url", Config{Timeout: time.Second, BaseURL: "::nope"}, "base_url"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error mentioning %q", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected %q in %v", tc.wantErr, err)
			}
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT app error, got %v", err)
			}
		})
	}
}
