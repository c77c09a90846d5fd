package httpclient

import "context"

// RequestInterceptor transforms a request before it is sent. Returning a nil
// request keeps the one passed in.
type RequestInterceptor func(ctx context.Context, req *Request) (*Request, error)

// RequestErrorInterceptor handles an error raised while preparing a request.
// Returning a request recovers and sends it; returning an error replaces the
// failure; returning (nil, nil) keeps the original failure.
type RequestErrorInterceptor func(ctx context.Context, err error) (*Request, error)

// ResponseInterceptor transforms a successful response. An error fails the
// attempt and enters the retry policy.
type ResponseInterceptor func(ctx context.Context, resp *Response) (*Response, error)

// ResponseErrorInterceptor handles a failed attempt. Returning a response
// recovers with it; returning an error replaces the failure; returning
// (nil, nil) keeps the original failure.
type ResponseErrorInterceptor func(ctx context.Context, err error) (*Response, error)

// Interceptors is a set of optional pipeline stages. Nil stages are skipped.
//
// Client-level interceptors run on every attempt. Call-level interceptors
// (Request.Interceptors) wrap the whole call: their Request stage runs before
// the client's on every attempt, and their Response/ResponseError stages run
// once on the final outcome.
type Interceptors struct {
	Request       RequestInterceptor
	RequestError  RequestErrorInterceptor
	Response      ResponseInterceptor
	ResponseError ResponseErrorInterceptor
}

// runRequest applies the Request stage of each set in order, handing the
// first failure to the RequestError stages.
func runRequest(ctx context.Context, req *Request, sets ...*Interceptors) (*Request, error) {
	for _, ic := range sets {
		if ic == nil || ic.Request == nil {
			continue
		}
		next, err := ic.Request(ctx, req)
		if err != nil {
			return runRequestError(ctx, err, sets...)
		}
		if next != nil {
			req = next
		}
	}
	return req, nil
}

func runRequestError(ctx context.Context, err error, sets ...*Interceptors) (*Request, error) {
	for _, ic := range sets {
		if ic == nil || ic.RequestError == nil {
			continue
		}
		req, handled := ic.RequestError(ctx, err)
		if handled != nil {
			err = handled
			continue
		}
		if req != nil {
			return req, nil
		}
	}
	return nil, err
}

func runResponse(ctx context.Context, ic *Interceptors, resp *Response) (*Response, error) {
	if ic == nil || ic.Response == nil {
		return resp, nil
	}
	next, err := ic.Response(ctx, resp)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return resp, nil
	}
	return next, nil
}

func runResponseError(ctx context.Context, ic *Interceptors, err error) (*Response, error) {
	if ic == nil || ic.ResponseError == nil {
		return nil, err
	}
	resp, handled := ic.ResponseError(ctx, err)
	if handled != nil {
		return nil, handled
	}
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// Chain merges several interceptor sets into one whose stages run each
// non-nil stage in order.
func Chain(sets ...Interceptors) Interceptors {
	ptrs := make([]*Interceptors, len(sets))
	for i := range sets {
		ptrs[i] = &sets[i]
	}
	var out Interceptors
	out.Request = func(ctx context.Context, req *Request) (*Request, error) {
		for _, ic := range ptrs {
			if ic.Request == nil {
				continue
			}
			next, err := ic.Request(ctx, req)
			if err != nil {
				return nil, err
			}
			if next != nil {
				req = next
			}
		}
		return req, nil
	}
	out.RequestError = func(ctx context.Context, err error) (*Request, error) {
		return runRequestError(ctx, err, ptrs...)
	}
	out.Response = func(ctx context.Context, resp *Response) (*Response, error) {
		for _, ic := range ptrs {
			next, err := runResponse(ctx, ic, resp)
			if err != nil {
				return nil, err
			}
			resp = next
		}
		return resp, nil
	}
	out.ResponseError = func(ctx context.Context, err error) (*Response, error) {
		for _, ic := range ptrs {
			resp, next := runResponseError(ctx, ic, err)
			if next == nil {
				return resp, nil
			}
			err = next
		}
		return nil, err
	}
	return out
}
