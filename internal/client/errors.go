package client

import "fmt"

// bodyPreviewLen caps how much of a response body is echoed into errors.
const bodyPreviewLen = 300

// TransportError is returned when the request never produced an HTTP response
// (connection refused, timeout, cancelled context).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is returned for a non-200 status or a body that is not JSON.
type ProtocolError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Invalid JSON response: %v\nRaw response: %s", e.Err, e.Body)
	}
	return fmt.Sprintf("HTTP %d - %s", e.StatusCode, e.Body)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ApplicationError is returned when the server answered 200 but reported
// failure, or sent an empty document.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return "Response error: " + e.Message
}

func preview(body []byte) string {
	if len(body) > bodyPreviewLen {
		body = body[:bodyPreviewLen]
	}
	return string(body)
}
