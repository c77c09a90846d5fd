package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 3})

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Errorf("attempt %d should be allowed", i)
		}
	}
	if rl.Allow() {
		t.Error("attempt over burst should be rejected")
	}
	if rl.Tokens() >= 1 {
		t.Errorf("expected an empty bucket, got %.2f tokens", rl.Tokens())
	}
}

func TestRateLimiter_WaitRefills(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 100, Burst: 1})
	rl.Allow()

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Error("expected Wait to block for a refill")
	}
}

func TestRateLimiter_WaitErrors(t *testing.T) {
	tests := []struct {
		name string
		ctx  func() (context.Context, context.CancelFunc)
		want error
	}{
		{
			name: "canceled",
			ctx: func() (context.Context, context.CancelFunc) {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx, cancel
			},
			want: context.Canceled,
		},
		{
			name: "deadline too close",
			ctx: func() (context.Context, context.CancelFunc) {
				return context.WithTimeout(context.Background(), time.Second)
			},
			want: ErrRateLimited,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(RateLimiterConfig{Rate: 0.01, Burst: 1})
			rl.Allow()

			ctx, cancel := tt.ctx()
			defer cancel()
			if err := rl.Wait(ctx); !errors.Is(err, tt.want) {
				t.Errorf("Wait() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	tests := []struct {
		cfg       RateLimiterConfig
		wantRate  float64
		wantBurst int
	}{
		{RateLimiterConfig{}, 10, 10},
		{RateLimiterConfig{Rate: 0.5}, 0.5, 1},
		{RateLimiterConfig{Rate: 4, Burst: 2}, 4, 2},
	}
	for _, tt := range tests {
		r, b := NewRateLimiter(tt.cfg).Limit()
		if r != tt.wantRate || b != tt.wantBurst {
			t.Errorf("%+v: Limit() = %v, %d; want %v, %d", tt.cfg, r, b, tt.wantRate, tt.wantBurst)
		}
	}
}
