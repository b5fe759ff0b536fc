package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 15 * time.Second

// NewClient returns an HTTP client with the given timeout, or DefaultTimeout
// when timeout is not positive.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
	}
}
