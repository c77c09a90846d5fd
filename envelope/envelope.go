package envelope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/httpclient"
)

// Code is an application error code. Upstreams send it as a JSON string or
// number; both decode to its string form.
type Code string

// UnmarshalJSON accepts "E42", 42 and null.
func (c *Code) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Code(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("envelope: error code must be a string or number: %w", err)
	}
	*c = Code(n.String())
	return nil
}

// IsZero reports whether no code was sent. "0" counts as no error.
func (c Code) IsZero() bool {
	if c == "" {
		return true
	}
	n, err := strconv.ParseFloat(string(c), 64)
	return err == nil && n == 0
}

// ErrorInfo is the application error block of an envelope.
type ErrorInfo struct {
	Code    Code   `json:"errorCode,omitempty"`
	Message string `json:"errorMsg,omitempty"`
}

// Envelope is the application response body: {"errorInfo": {...}, "result": ...}.
type Envelope[T any] struct {
	ErrorInfo *ErrorInfo `json:"errorInfo,omitempty"`
	Result    T          `json:"result"`
}

// Failed reports whether the envelope carries an error code.
func (e *Envelope[T]) Failed() bool {
	return e.ErrorInfo != nil && !e.ErrorInfo.Code.IsZero()
}

// Err returns the envelope's error as an *errors.AppError, or nil.
func (e *Envelope[T]) Err(httpStatus int) error {
	if !e.Failed() {
		return nil
	}
	return errors.Upstream(string(e.ErrorInfo.Code), e.ErrorInfo.Message, httpStatus)
}

// Handler is called for a successful response whose envelope carries an
// error code.
type Handler func(ctx context.Context, info ErrorInfo, resp *httpclient.Response) error

// Interceptor returns a Response interceptor that calls handler when the
// body is an envelope with an error code. Bodies that are not JSON objects
// pass through. A handler error fails the attempt.
func Interceptor(handler Handler) httpclient.ResponseInterceptor {
	return func(ctx context.Context, resp *httpclient.Response) (*httpclient.Response, error) {
		var env Envelope[json.RawMessage]
		if err := json.Unmarshal(resp.Body, &env); err != nil {
			return resp, nil
		}
		if env.Failed() {
			if err := handler(ctx, *env.ErrorInfo, resp); err != nil {
				return nil, err
			}
		}
		return resp, nil
	}
}

// Decode unwraps the envelope in resp and returns its result. An error
// code in the envelope is returned as an UPSTREAM_ERROR *errors.AppError.
func Decode[T any](resp *httpclient.Response) (T, error) {
	var env Envelope[T]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		var zero T
		return zero, errors.InvalidFormat("response envelope", err)
	}
	if err := env.Err(resp.StatusCode); err != nil {
		var zero T
		return zero, err
	}
	return env.Result, nil
}

// Do issues req and unwraps the envelope of the response.
func Do[T any](ctx context.Context, c *httpclient.Client, req httpclient.Request) (T, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](resp)
}
