package ingest

import (
	"errors"
	"fmt"
)

// TransportError means the request never produced a usable HTTP response:
// DNS, dial, TLS, timeout or a failure while reading the body.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError is returned for any non-2xx response.
type HTTPStatusError struct {
	StatusCode int
	Body       string // truncated
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError reports a response that decoded but lacks a key the
// normalizer needs, or a body that is not valid JSON (Key empty, Err set).
// Index is the bucket position, or -1 for top-level keys.
type MalformedResponseError struct {
	Key   string
	Index int
	Err   error
}

func (e *MalformedResponseError) Error() string {
	switch {
	case e.Key == "" && e.Err != nil:
		return fmt.Sprintf("malformed response: %v", e.Err)
	case e.Index < 0:
		return fmt.Sprintf("malformed response: missing key %q", e.Key)
	default:
		return fmt.Sprintf("malformed response: bucket %d missing key %q", e.Index, e.Key)
	}
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// UnexpectedError wraps every failure that is not one of the above.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected: %v", e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

func missingKey(index int, key string) *MalformedResponseError {
	return &MalformedResponseError{Key: key, Index: index}
}

// Failure kinds, used as metric labels and in the run audit log.
const (
	KindTransport  = "transport"
	KindHTTPStatus = "http_status"
	KindMalformed  = "malformed_response"
	KindUnexpected = "unexpected"
)

// ErrorKind classifies err into one of the fetch failure kinds. It returns
// "" for nil and for errors outside the fetcher's taxonomy.
func ErrorKind(err error) string {
	var (
		transport  *TransportError
		status     *HTTPStatusError
		malformed  *MalformedResponseError
		unexpected *UnexpectedError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &transport):
		return KindTransport
	case errors.As(err, &status):
		return KindHTTPStatus
	case errors.As(err, &malformed):
		return KindMalformed
	case errors.As(err, &unexpected):
		return KindUnexpected
	}
	return ""
}

const maxBodyLen = 512

// truncateBody shortens an error response body for logs and error values.
func truncateBody(body []byte) string {
	if len(body) <= maxBodyLen {
		return string(body)
	}
	return string(body[:maxBodyLen]) + "...(truncated)"
}
