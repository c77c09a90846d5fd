package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
)

// encodedBody is a body already serialized, replayable on every attempt.
type encodedBody struct {
	data        []byte
	contentType string
}

// replayable converts one-shot bodies (readers, multipart bodies holding
// readers) into an encodedBody so that retries resend the same bytes.
func replayable(body any) (any, error) {
	switch v := body.(type) {
	case *MultipartBody:
		r, ct, err := v.encode()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return encodedBody{data: data, contentType: ct}, nil
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			return nil, err
		}
		return encodedBody{data: data}, nil
	default:
		return body, nil
	}
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case encodedBody:
		return bytes.NewReader(v.data), v.contentType, nil
	case *MultipartBody:
		return v.encode()
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), ContentTypeText, nil
	case url.Values:
		return strings.NewReader(v.Encode()), ContentTypeFormURLEncoded, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), ContentTypeJSON, nil
	}
}

// bodyAsQuery moves a map body into the query string for GET requests that
// have no explicit query, so callers can pass filter params as the body.
func bodyAsQuery(req *Request) {
	if req.Method != http.MethodGet || len(req.Query) > 0 || req.Body == nil {
		return
	}
	switch v := req.Body.(type) {
	case map[string]string:
		req.Query = maps.Clone(v)
	case map[string]any:
		req.Query = make(map[string]string, len(v))
		for k, val := range v {
			req.Query[k] = fmt.Sprint(val)
		}
	case url.Values:
		req.Query = make(map[string]string, len(v))
		for k := range v {
			req.Query[k] = v.Get(k)
		}
	default:
		return
	}
	req.Body = nil
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
