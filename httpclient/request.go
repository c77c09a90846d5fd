package httpclient

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"time"

	"github.com/kbukum/reqkit/validation"
)

// Request describes an outbound HTTP call.
type Request struct {
	// Method is the HTTP method. Defaults to GET.
	Method string
	// URL is resolved against the client's BaseURL unless it is absolute.
	// It is also the key used by Client.Cancel.
	URL string
	// Headers are request-specific headers (merged over client defaults).
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body is the request body. Accepts io.Reader, []byte, string, url.Values,
	// *MultipartBody, or any value that will be JSON-encoded. For GET requests a
	// map body with no explicit Query is sent as query parameters instead.
	Body any
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig

	// Timeout overrides the client timeout for each attempt of this call.
	Timeout time.Duration
	// Retry overrides the client retry budget for this call.
	Retry *int
	// RetryDelay overrides the client retry delay for this call.
	RetryDelay time.Duration
	// Interceptors run for this call only, outside the client's own interceptors.
	Interceptors *Interceptors

	// ID is the per-call identifier assigned by the client. Read-only.
	ID string
	// Attempt is the retry counter: 0 on the first attempt and incremented
	// before every retry. Set by the client.
	Attempt int
}

// clone copies r with its header and query maps so interceptors can mutate
// the copy without touching the caller's request.
func (r *Request) clone() *Request {
	c := *r
	c.Headers = maps.Clone(r.Headers)
	c.Query = maps.Clone(r.Query)
	return &c
}

// SetHeader sets a request header, allocating the map if needed.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

var knownMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

func (r *Request) validate() error {
	v := validation.New()
	v.Required("url", r.URL)
	v.OneOf("method", r.Method, knownMethods...)
	v.NonNegative("timeout", int64(r.Timeout))
	v.NonNegative("retry_delay", int64(r.RetryDelay))
	if r.Retry != nil {
		v.NonNegative("retry", int64(*r.Retry))
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Response is the result of an HTTP call.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
	// Request is the request that produced this response, after interceptors.
	Request *Request
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("httpclient: decode response: %w", err)
	}
	return nil
}
