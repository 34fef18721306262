package backend

import (
	"errors"
	"fmt"
	"net"
)

// StatusError reports a response that arrived with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	// Message is the server supplied "message" field, if the body had one.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: api error %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("backend: api error %d from %s", e.StatusCode, e.URL)
}

// NoResponseError reports a request that was sent but never answered:
// connection refused, DNS failure, timeout or a dropped connection.
type NoResponseError struct {
	URL string
	Err error
}

func (e *NoResponseError) Error() string {
	return fmt.Sprintf("backend: no response from %s: %v", e.URL, e.Err)
}

func (e *NoResponseError) Unwrap() error { return e.Err }

// Timeout reports whether the request was abandoned because of a deadline.
func (e *NoResponseError) Timeout() bool {
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// RequestError reports a request that could not be built or issued.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }
