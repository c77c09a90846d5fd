package httpclient

// Content types commonly sent by the client.
const (
	ContentTypeJSON           = "application/json;charset=UTF-8"
	ContentTypeText           = "text/plain;charset=UTF-8"
	ContentTypeFormURLEncoded = "application/x-www-form-urlencoded;charset=UTF-8"
	ContentTypeFormData       = "multipart/form-data;charset=UTF-8"
)

const headerContentType = "Content-Type"
