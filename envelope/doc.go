// Package envelope unwraps application responses shaped as
// {"errorInfo": {"errorCode": ..., "errorMsg": ...}, "result": ...}.
//
// The HTTP client only checks transport status. An upstream that reports
// failures inside a 200 response is handled here, either by installing
// Interceptor on the client or by calling Decode on each response.
package envelope
