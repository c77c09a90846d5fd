// Package httpclient wraps net/http with a four-stage interceptor chain,
// a registry of in-flight calls that can be aborted by URL, and a bounded
// fixed-delay retry policy.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.example.com",
//	    Retry:   2,
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodGet,
//	    URL:    "/users/123",
//	})
//
// Only 2xx responses succeed. Any other status fails with an *Error whose
// Body holds the payload.
//
// # Interceptors
//
// Each call runs its own Request interceptor before the client's, on every
// attempt. The client's Response and ResponseError interceptors run after
// every attempt. The call's Response and ResponseError interceptors run
// once on the final outcome.
//
// # Retry
//
// A failed attempt is retried after Config.RetryDelay (50ms by default)
// until Config.Retry retries are spent. Errors whose status or code name is
// listed in Config.BlockedCodes are returned immediately, as are canceled
// calls.
//
// # Cancellation
//
//	client.Cancel("/users/123") // aborts every in-flight call to that URL
//	client.CancelAll()
package httpclient
