package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/kbukum/reqkit/errors"
)

func TestValidatorRequired(t *testing.T) {
	v := New()
	v.Required("url", "/x")
	if v.HasErrors() {
		t.Error("expected no errors for valid input")
	}

	v2 := New()
	v2.Required("url", "   ")
	if !v2.HasErrors() {
		t.Error("expected error for whitespace-only required field")
	}
}

func TestValidatorOneOf(t *testing.T) {
	v := New()
	v.OneOf("method", "GET", "GET", "POST")
	v.OneOf("method", "", "GET", "POST")
	if v.HasErrors() {
		t.Errorf("unexpected errors: %v", v.Errors())
	}

	v.OneOf("method", "BREW", "GET", "POST")
	if len(v.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(v.Errors()))
	}
	if !strings.Contains(v.Errors()[0].Message, "GET POST") {
		t.Errorf("unexpected message %q", v.Errors()[0].Message)
	}
}

func TestValidatorValidate(t *testing.T) {
	v := New()
	if v.Validate() != nil {
		t.Error("expected nil when there are no errors")
	}

	v.Required("url", "")
	v.NonNegative("retry", -1)
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected error")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "url: is required") || !strings.Contains(appErr.Message, "retry: must not be negative") {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

type sampleConfig struct {
	BaseURL    string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Retry      int           `mapstructure:"retry" validate:"gte=0"`
	RetryDelay time.Duration
}

func TestValidateStruct(t *testing.T) {
	ok := sampleConfig{Timeout: time.Second}
	if err := Validate(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := sampleConfig{BaseURL: "::not a url", Timeout: 0, Retry: -2}
	err := Validate(bad)
	if err == nil {
		t.Fatal("expected error")
	}
	appErr, isApp := errors.AsAppError(err)
	if !isApp {
		t.Fatalf("expected AppError, got %T", err)
	}
	for _, want := range []string{"base_url: must be a valid URL", "timeout: must be greater than 0", "retry: must be at least 0"} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("expected %q in %q", want, appErr.Message)
		}
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	if len(fields) != 3 {
		t.Errorf("expected 3 field errors, got %d", len(fields))
	}
}

type limits struct {
	Burst int `mapstructure:"burst" validate:"gte=1"`
}

type nestedConfig struct {
	Name   string `validate:"required"`
	Limits limits `mapstructure:"rate_limiter"`
}

func TestValidateNestedPath(t *testing.T) {
	err := Validate(nestedConfig{})
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %v", err)
	}
	for _, want := range []string{"name: is required", "rate_limiter.burst: must be at least 1"} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("expected %q in %q", want, appErr.Message)
		}
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"RetryDelay": "retry_delay",
		"Name":       "name",
		"url":        "url",
	}
	for in, want := range tests {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
