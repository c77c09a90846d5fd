package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/publicsuffix"

	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/observability"
	"github.com/kbukum/reqkit/resilience"
	"github.com/kbukum/reqkit/util"
)

// Client wraps net/http with interceptors, bounded retry and per-call cancellation.
type Client struct {
	httpClient *http.Client
	config     Config
	registry   *registry
	blocked    map[string]struct{}
	limiter    *resilience.RateLimiter
	log        *logger.Logger
	metrics    *observability.ClientMetrics
	tracing    bool
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tlsCfg, err := cfg.TLS.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport},
		config:     cfg,
		registry:   newRegistry(),
		blocked:    make(map[string]struct{}, len(cfg.BlockedCodes)),
		log:        logger.Get("httpclient").WithFields(logger.Fields("client", cfg.Name)),
	}
	for _, code := range cfg.BlockedCodes {
		c.blocked[code] = struct{}{}
	}

	if cfg.WithCredentials {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("httpclient: create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}
	if cfg.RateLimiter != nil {
		c.limiter = resilience.NewRateLimiter(*cfg.RateLimiter)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Do issues a request. The call is registered for cancellation under
// req.URL until it completes. Failed attempts are retried with a fixed
// delay until the retry budget is spent, unless the error carries a
// blocked code or the call was canceled.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	call := req.clone()
	if call.Method == "" {
		call.Method = http.MethodGet
	}

	callCtx, id, release := c.registry.register(ctx, call.URL)
	defer release()
	call.ID = id

	ctx = logger.ContextWithRequestID(ctx, id)
	callCtx = logger.ContextWithRequestID(callCtx, id)
	log := c.log.WithContext(ctx)

	var span trace.Span
	if c.tracing {
		ctx, span = observability.StartSpan(ctx, observability.SpanHTTPRequest, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()
		span.SetAttributes(
			attribute.String(observability.AttrHTTPMethod, call.Method),
			attribute.String(observability.AttrHTTPURL, call.URL),
			attribute.String(observability.AttrCallID, id),
		)
		callCtx = trace.ContextWithSpan(callCtx, span)
	}

	start := time.Now()
	if c.metrics != nil {
		c.metrics.RecordCallStart(ctx)
	}

	resp, attempts, err := c.execute(callCtx, call, log)
	release()

	if c.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.RecordCallEnd(ctx, call.Method, status, time.Since(start))
	}

	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Attempts = attempts
			if e.URL == "" {
				e.URL = call.URL
			}
		}
		log.Debug("request failed", logger.Fields(
			logger.FieldURL, call.URL,
			logger.FieldMethod, call.Method,
			logger.FieldAttempt, attempts,
			logger.FieldError, err.Error(),
		))
		if span != nil {
			observability.SetSpanError(ctx, err)
		}
		return runResponseError(ctx, call.Interceptors, err)
	}

	return runResponse(ctx, call.Interceptors, resp)
}

// requestStageError marks a failure raised before dispatch. It is never retried.
type requestStageError struct{ err error }

func (e requestStageError) Error() string { return e.err.Error() }
func (e requestStageError) Unwrap() error { return e.err }

// execute runs the bounded retry loop for one call.
func (c *Client) execute(callCtx context.Context, call *Request, log *logger.Logger) (*Response, int, error) {
	body, err := replayable(call.Body)
	if err != nil {
		return nil, 0, NewValidationError(fmt.Sprintf("buffer body: %v", err))
	}
	call.Body = body

	attempts := 0
	policy := resilience.RetryConfig{
		MaxRetries: util.ValueOr(call.Retry, c.config.Retry),
		Delay:      util.FirstNonZero(call.RetryDelay, c.config.RetryDelay),
		RetryIf: func(err error) bool {
			return callCtx.Err() == nil && c.shouldRetry(err)
		},
		OnRetry: func(retry int, err error, delay time.Duration) {
			log.Warn("retrying request", logger.Fields(
				logger.FieldURL, call.URL,
				logger.FieldMethod, call.Method,
				logger.FieldAttempt, retry,
				logger.FieldError, err.Error(),
				"delay_ms", delay.Milliseconds(),
			))
			if c.metrics != nil {
				c.metrics.RecordRetry(callCtx, call.Method, call.URL)
			}
		},
	}

	resp, err := resilience.Retry(callCtx, policy, func(retry int) (*Response, error) {
		call.Attempt = retry
		attempts++
		return c.attempt(callCtx, call)
	})
	if err == nil {
		return resp, attempts, nil
	}

	if stageErr, ok := err.(requestStageError); ok {
		return nil, attempts, stageErr.err
	}
	// An abort that lands between attempts still reports as an abort.
	if callCtx.Err() != nil && !IsCanceled(err) && !IsTimeout(err) {
		return nil, attempts, c.abortError(callCtx, err)
	}
	return nil, attempts, err
}

// attempt prepares, sends and post-processes a single attempt.
func (c *Client) attempt(callCtx context.Context, call *Request) (*Response, error) {
	req, err := c.prepare(callCtx, call.clone())
	if err != nil {
		return nil, requestStageError{err}
	}
	bodyAsQuery(req)

	if c.limiter != nil {
		if err := c.limiter.Wait(callCtx); err != nil {
			if callCtx.Err() != nil {
				return nil, c.abortError(callCtx, err)
			}
			return nil, &Error{Code: ErrCodeRateLimit, Message: err.Error(), Err: err}
		}
	}

	attemptCtx, cancel := context.WithTimeout(callCtx, util.FirstNonZero(req.Timeout, c.config.Timeout))
	defer cancel()

	if c.tracing {
		var span trace.Span
		attemptCtx, span = observability.StartSpan(attemptCtx, observability.SpanHTTPAttempt, trace.WithSpanKind(trace.SpanKindClient))
		defer span.End()
		span.SetAttributes(
			attribute.String(observability.AttrHTTPMethod, req.Method),
			attribute.String(observability.AttrHTTPURL, req.URL),
			attribute.Int(observability.AttrRetry, req.Attempt),
			attribute.String(observability.AttrCallID, req.ID),
		)
	}
	if c.metrics != nil {
		c.metrics.RecordAttempt(callCtx, req.Method, req.URL)
	}

	httpReq, err := c.buildRequest(attemptCtx, req)
	if err != nil {
		return nil, requestStageError{err}
	}

	resp, err := c.send(attemptCtx, callCtx, httpReq, req)
	if err != nil {
		if c.tracing {
			observability.SetSpanError(attemptCtx, err)
		}
		return runResponseError(callCtx, &c.config.Interceptors, err)
	}
	return runResponse(callCtx, &c.config.Interceptors, resp)
}

// prepare validates the request and runs the Request stages: call-level
// interceptors first, then the client's.
func (c *Client) prepare(ctx context.Context, req *Request) (*Request, error) {
	sets := []*Interceptors{req.Interceptors, &c.config.Interceptors}
	if err := req.validate(); err != nil {
		return runRequestError(ctx, err, sets...)
	}
	return runRequest(ctx, req, sets...)
}

// send dispatches the request and classifies the outcome. Only 2xx
// responses succeed; other statuses fail with the payload in Error.Body.
func (c *Client) send(attemptCtx, callCtx context.Context, httpReq *http.Request, req *Request) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(attemptCtx, callCtx, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(attemptCtx, callCtx, fmt.Errorf("read response body: %w", err))
	}

	if c.tracing {
		trace.SpanFromContext(attemptCtx).SetAttributes(attribute.Int(observability.AttrHTTPStatus, httpResp.StatusCode))
	}

	if classErr := ClassifyStatusCode(httpResp.StatusCode, body); classErr != nil {
		classErr.URL = req.URL
		return nil, classErr
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    flattenHeaders(httpResp.Header),
		Body:       body,
		Request:    req,
	}, nil
}

func (c *Client) transportError(attemptCtx, callCtx context.Context, err error) *Error {
	if callCtx.Err() != nil {
		return c.abortError(callCtx, err)
	}
	if attemptCtx.Err() != nil {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

// abortError classifies a failure caused by the call context ending: an
// explicit Cancel, the caller canceling, or the caller's deadline.
func (c *Client) abortError(callCtx context.Context, err error) *Error {
	cause := context.Cause(callCtx)
	switch {
	case errors.Is(cause, ErrCanceled):
		return &Error{Code: ErrCodeCanceled, Message: ErrCanceled.Error(), Err: errors.Join(ErrCanceled, err)}
	case errors.Is(cause, context.DeadlineExceeded):
		return &Error{Code: ErrCodeTimeout, Message: cause.Error(), Err: errors.Join(cause, err)}
	case cause != nil:
		return &Error{Code: ErrCodeCanceled, Message: cause.Error(), Err: errors.Join(cause, err)}
	default:
		return NewConnectionError(err)
	}
}

func (c *Client) shouldRetry(err error) bool {
	if _, ok := err.(requestStageError); ok {
		return false
	}
	// An attempt that hit its own timeout is retried; an abort of the whole
	// call is filtered by the caller through the call context.
	if IsCanceled(err) {
		return false
	}
	if c.isBlocked(err) {
		return false
	}
	if c.config.RetryIf != nil {
		return c.config.RetryIf(err)
	}
	return true
}

// isBlocked reports whether err carries one of the blocked codes.
func (c *Client) isBlocked(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	for _, code := range e.Codes() {
		if _, ok := c.blocked[code]; ok {
			return true
		}
	}
	return false
}

// buildRequest constructs an *http.Request from the client config and request.
func (c *Client) buildRequest(ctx context.Context, req *Request) (*http.Request, error) {
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.resolveURL(req.URL), body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && httpReq.Header.Get(headerContentType) == "" && contentType != "" {
		httpReq.Header.Set(headerContentType, contentType)
	}
	if c.config.RequestIDHeader != "" && httpReq.Header.Get(c.config.RequestIDHeader) == "" {
		httpReq.Header.Set(c.config.RequestIDHeader, req.ID)
	}
	if c.tracing {
		carrier := make(map[string]string)
		observability.InjectHeaders(ctx, carrier)
		for k, v := range carrier {
			httpReq.Header.Set(k, v)
		}
	}

	auth := c.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	if err := auth.apply(httpReq); err != nil {
		return nil, &Error{Code: ErrCodeAuth, Message: err.Error(), Err: err}
	}

	return httpReq, nil
}

func (c *Client) resolveURL(path string) string {
	if c.config.BaseURL == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.config.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// CancelAll aborts every in-flight call and clears the registry.
// It returns the number of calls aborted.
func (c *Client) CancelAll() int {
	n := c.registry.cancelAll()
	c.recordCancel("cancel all", n, nil)
	return n
}

// Cancel aborts every in-flight call made to one of urls and removes their
// handles. Calls to other URLs are unaffected. It returns the number of
// calls aborted.
func (c *Client) Cancel(urls ...string) int {
	n := c.registry.cancel(urls...)
	c.recordCancel("cancel", n, urls)
	return n
}

func (c *Client) recordCancel(op string, n int, urls []string) {
	if n == 0 {
		return
	}
	fields := logger.Fields(logger.FieldOperation, op, "aborted", n)
	if urls != nil {
		fields["urls"] = urls
	}
	c.log.Info("canceled in-flight requests", fields)
	if c.metrics != nil {
		c.metrics.RecordCancellations(context.Background(), n)
	}
}

// Pending returns the number of in-flight calls registered for url.
func (c *Client) Pending(url string) int {
	return c.registry.pending(url)
}

// InFlight returns the number of in-flight calls.
func (c *Client) InFlight() int {
	return c.registry.size()
}

// InFlightURLs returns the distinct URLs that have in-flight calls.
func (c *Client) InFlightURLs() []string {
	return c.registry.urls()
}

// Name returns the client name.
func (c *Client) Name() string {
	return c.config.Name
}

// Config returns the client's effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// IsAvailable reports whether the client accepts requests right now.
// It is false only while a rate limiter has no tokens to spare.
func (c *Client) IsAvailable(_ context.Context) bool {
	return c.limiter == nil || c.limiter.Tokens() >= 1
}

// Close cancels every in-flight call and releases idle connections.
func (c *Client) Close(_ context.Context) error {
	c.CancelAll()
	c.httpClient.CloseIdleConnections()
	return nil
}
