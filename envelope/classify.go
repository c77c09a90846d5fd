package envelope

import (
	stderrors "errors"
	"net/http"

	"github.com/kbukum/reqkit/errors"
	"github.com/kbukum/reqkit/httpclient"
)

// AsAppError maps any call error to an *errors.AppError so callers can
// report transport and envelope failures the same way. Nil stays nil.
func AsAppError(err error) *errors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr
	}

	var httpErr *httpclient.Error
	if !stderrors.As(err, &httpErr) {
		return errors.Internal(err)
	}

	var code errors.ErrorCode
	status := httpErr.StatusCode
	switch httpErr.Code {
	case httpclient.ErrCodeTimeout:
		code, status = errors.ErrCodeTimeout, http.StatusGatewayTimeout
	case httpclient.ErrCodeConnection, httpclient.ErrCodeServer:
		code = errors.ErrCodeServiceUnavailable
		if status == 0 {
			status = http.StatusServiceUnavailable
		}
	case httpclient.ErrCodeRateLimit:
		code = errors.ErrCodeRateLimited
		if status == 0 {
			status = http.StatusTooManyRequests
		}
	case httpclient.ErrCodeAuth:
		code = errors.ErrCodeUnauthorized
	case httpclient.ErrCodeValidation, httpclient.ErrCodeNotFound:
		code = errors.ErrCodeInvalidInput
	case httpclient.ErrCodeCanceled:
		code, status = errors.ErrCodeCanceled, 499
	default:
		code = errors.ErrCodeUpstream
	}

	return errors.New(code, httpErr.Message, status).
		WithCause(err).
		WithDetail("url", httpErr.URL).
		WithDetail("attempts", httpErr.Attempts)
}
