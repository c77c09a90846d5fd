package util

import (
	"testing"
	"time"
)

func TestPtr(t *testing.T) {
	p := Ptr(42)
	if *p != 42 {
		t.Errorf("expected *p=42, got %d", *p)
	}
}

func TestValueOr(t *testing.T) {
	if got := ValueOr(Ptr(0), 5); got != 0 {
		t.Errorf("expected explicit zero to win, got %d", got)
	}
	var nilPtr *int
	if got := ValueOr(nilPtr, 5); got != 5 {
		t.Errorf("expected default 5, got %d", got)
	}
}

func TestFirstNonZero(t *testing.T) {
	if got := FirstNonZero(0, 0, 3, 4); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if got := FirstNonZero(time.Duration(0), 2*time.Second); got != 2*time.Second {
		t.Errorf("expected 2s, got %v", got)
	}
	if got := FirstNonZero[string](); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
