package httpclient

import (
	"context"
	"net/http"
)

// Result holds a decoded payload with response metadata.
type Result[T any] struct {
	Data       T
	StatusCode int
	Headers    map[string]string
}

// Fetch issues req and decodes the JSON response body into T.
// An empty body leaves Data at its zero value.
func Fetch[T any](ctx context.Context, c *Client, req Request) (*Result[T], error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
	}
	if len(resp.Body) > 0 {
		if err := resp.Decode(&result.Data); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Get performs a GET and decodes the response into T.
func Get[T any](ctx context.Context, c *Client, url string, query map[string]string) (*Result[T], error) {
	return Fetch[T](ctx, c, Request{Method: http.MethodGet, URL: url, Query: query})
}

// Post performs a POST with a JSON body and decodes the response into T.
func Post[T any](ctx context.Context, c *Client, url string, body any) (*Result[T], error) {
	return Fetch[T](ctx, c, Request{Method: http.MethodPost, URL: url, Body: body})
}

// Put performs a PUT with a JSON body and decodes the response into T.
func Put[T any](ctx context.Context, c *Client, url string, body any) (*Result[T], error) {
	return Fetch[T](ctx, c, Request{Method: http.MethodPut, URL: url, Body: body})
}

// Patch performs a PATCH with a JSON body and decodes the response into T.
func Patch[T any](ctx context.Context, c *Client, url string, body any) (*Result[T], error) {
	return Fetch[T](ctx, c, Request{Method: http.MethodPatch, URL: url, Body: body})
}

// Delete performs a DELETE and decodes the response into T.
func Delete[T any](ctx context.Context, c *Client, url string) (*Result[T], error) {
	return Fetch[T](ctx, c, Request{Method: http.MethodDelete, URL: url})
}
