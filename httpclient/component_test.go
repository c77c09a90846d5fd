package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kbukum/reqkit/component"
)

func TestComponent_Lifecycle(t *testing.T) {
	srv, hits, release := blockingServer(t)
	defer srv.Close()
	defer release()

	comp := NewComponent(Config{Name: "upstream", BaseURL: srv.URL, Retry: 2})
	ctx := context.Background()

	if comp.Name() != "upstream" {
		t.Errorf("expected name upstream, got %q", comp.Name())
	}
	if h := comp.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}

	if err := comp.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h := comp.Health(ctx); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}

	errs := make(chan error, 1)
	go func() {
		_, err := comp.Client().Do(ctx, Request{URL: "/hang"})
		errs <- err
	}()
	waitFor(t, func() bool { return hits.Load() == 1 })

	if err := comp.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := <-errs; !IsCanceled(err) {
		t.Errorf("expected in-flight call to be canceled on stop, got %v", err)
	}
}

func TestComponent_StartInvalidConfig(t *testing.T) {
	comp := NewComponent(Config{Retry: -1})
	if err := comp.Start(context.Background()); err == nil {
		t.Error("expected start to fail for invalid config")
	}
	if err := comp.Stop(context.Background()); err != nil {
		t.Errorf("stop without start should be a no-op, got %v", err)
	}
}

func TestComponent_Describe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	d := NewComponent(Config{BaseURL: srv.URL, Retry: 3}).Describe()
	if d.Name != "http" || d.Type != "http-client" {
		t.Errorf("unexpected description %+v", d)
	}
	if !strings.Contains(d.Details, srv.URL) || !strings.Contains(d.Details, "retry=3") {
		t.Errorf("unexpected details %q", d.Details)
	}
}

func TestComponent_Registry(t *testing.T) {
	reg := component.NewRegistry()
	comp := NewComponent(Config{Name: "api"})
	if err := reg.Register(comp); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.StartAll(context.Background()); err != nil {
		t.Fatalf("start all: %v", err)
	}
	if comp.Client() == nil {
		t.Fatal("expected client after StartAll")
	}
	if err := reg.StopAll(context.Background()); err != nil {
		t.Fatalf("stop all: %v", err)
	}
}
