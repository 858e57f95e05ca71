package api

import "fmt"

// TimeoutError reports a request that produced no response within the
// configured timeout.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request timeout: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response. Delivery success is determined by
// status code alone, never by response payload shape.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}
