package backend

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse is returned when a downstream answers 2xx with no usable
// body, or without the field the operation cannot do without.
var ErrEmptyResponse = errors.New("empty response from downstream")

// DownstreamError is the fail-fast outcome of a downstream call. Its message
// names the backend and carries the underlying cause.
type DownstreamError struct {
	Service   string
	Operation string
	Err       error
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("%s backend %s failed: %v", e.Service, e.Operation, e.Err)
}

func (e *DownstreamError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx downstream response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("returned status %d: %s", e.StatusCode, e.Body)
}
