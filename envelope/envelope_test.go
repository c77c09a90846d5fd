package envelope

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/httpclient"
)

type item struct {
	ID string `json:"id"`
}

func TestCode_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Code
		zero bool
	}{
		{`{"errorCode":"E42"}`, "E42", false},
		{`{"errorCode":1001}`, "1001", false},
		{`{"errorCode":0}`, "0", true},
		{`{"errorCode":null}`, "", true},
		{`{}`, "", true},
	}
	for _, tc := range tests {
		var info ErrorInfo
		if err := json.Unmarshal([]byte(tc.in), &info); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if info.Code != tc.want {
			t.Errorf("%s: got %q, want %q", tc.in, info.Code, tc.want)
		}
		if info.Code.IsZero() != tc.zero {
			t.Errorf("%s: IsZero=%v, want %v", tc.in, info.Code.IsZero(), tc.zero)
		}
	}

	var info ErrorInfo
	if err := json.Unmarshal([]byte(`{"errorCode":true}`), &info); err == nil {
		t.Error("expected error for boolean code")
	}
}

func TestDecode(t *testing.T) {
	ok := &httpclient.Response{StatusCode: 200, Body: []byte(`{"result":{"id":"a1"}}`)}
	got, err := Decode[item](ok)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "a1" {
		t.Errorf("unexpected result %+v", got)
	}

	failed := &httpclient.Response{StatusCode: 200, Body: []byte(`{"errorInfo":{"errorCode":7,"errorMsg":"quota"},"result":null}`)}
	_, err = Decode[item](failed)
	appErr, isApp := errors.AsAppError(err)
	if !isApp || appErr.Code != errors.ErrCodeUpstream {
		t.Fatalf("expected upstream app error, got %v", err)
	}
	if appErr.Message != "quota" || appErr.Details["upstream_code"] != "7" {
		t.Errorf("unexpected app error %+v", appErr)
	}

	garbage := &httpclient.Response{StatusCode: 200, Body: []byte(`<html>`)}
	if _, err := Decode[item](garbage); !errors.HasCode(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected invalid format, got %v", err)
	}
}

func TestInterceptor(t *testing.T) {
	var seen atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fail":
			_, _ = w.Write([]byte(`{"errorInfo":{"errorCode":"AUTH"},"result":null}`))
		case "/text":
			_, _ = w.Write([]byte("plain"))
		default:
			_, _ = w.Write([]byte(`{"result":{"id":"ok"}}`))
		}
	}))
	defer srv.Close()

	c, err := httpclient.New(httpclient.Config{
		BaseURL: srv.URL,
		Interceptors: httpclient.Interceptors{
			Response: Interceptor(func(_ context.Context, info ErrorInfo, _ *httpclient.Response) error {
				seen.Add(1)
				if info.Code != "AUTH" {
					t.Errorf("unexpected code %q", info.Code)
				}
				return nil
			}),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{"/ok", "/text", "/fail"} {
		if _, err := c.Do(context.Background(), httpclient.Request{URL: path}); err != nil {
			t.Fatalf("%s: unexpected error: %v", path, err)
		}
	}
	if seen.Load() != 1 {
		t.Errorf("expected handler once, got %d", seen.Load())
	}
}

func TestInterceptor_HandlerErrorRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"errorInfo":{"errorCode":"BUSY"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":{"id":"second"}}`))
	}))
	defer srv.Close()

	errBusy := stderrors.New("busy")
	c, err := httpclient.New(httpclient.Config{
		BaseURL:    srv.URL,
		Retry:      1,
		RetryDelay: time.Millisecond,
		Interceptors: httpclient.Interceptors{
			Response: Interceptor(func(context.Context, ErrorInfo, *httpclient.Response) error {
				return errBusy
			}),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := Do[item](context.Background(), c, httpclient.Request{URL: "/busy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "second" || hits.Load() != 2 {
		t.Errorf("expected retry to reach second response, got %+v after %d hits", got, hits.Load())
	}
}

func TestAsAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   errors.ErrorCode
		status int
	}{
		{"timeout", httpclient.NewTimeoutError(stderrors.New("slow")), errors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{"connection", httpclient.NewConnectionError(stderrors.New("refused")), errors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"server", httpclient.ClassifyStatusCode(502, nil), errors.ErrCodeServiceUnavailable, 502},
		{"rate limit", httpclient.ClassifyStatusCode(429, nil), errors.ErrCodeRateLimited, 429},
		{"auth", httpclient.ClassifyStatusCode(401, nil), errors.ErrCodeUnauthorized, 401},
		{"bad request", httpclient.ClassifyStatusCode(400, nil), errors.ErrCodeInvalidInput, 400},
		{"canceled", httpclient.NewCanceledError(httpclient.ErrCanceled), errors.ErrCodeCanceled, 499},
		{"plain", stderrors.New("boom"), errors.ErrCodeInternal, http.StatusInternalServerError},
		{"app", errors.Upstream("X", "nope", 200), errors.ErrCodeUpstream, 200},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AsAppError(tc.err)
			if got.Code != tc.code || got.HTTPStatus != tc.status {
				t.Errorf("got %s/%d, want %s/%d", got.Code, got.HTTPStatus, tc.code, tc.status)
			}
		})
	}
	if AsAppError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}
