package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

var (
	// ErrInvalidEndpoint is returned when a caller passes anything but a relative path
	ErrInvalidEndpoint = errors.New("backend endpoint must be a relative path")

	// ErrMalformedResponse is returned when a 2xx body cannot be decoded
	ErrMalformedResponse = errors.New("malformed backend response")
)

// Outcome classifies a backend call or health probe
type Outcome string

const (
	OutcomeHealthy           Outcome = "healthy"
	OutcomeTimeout           Outcome = "timeout"
	OutcomeConnectionRefused Outcome = "connection_refused"
	OutcomeCanceled          Outcome = "canceled"
	OutcomeBadStatus         Outcome = "bad_status"
	OutcomeError             Outcome = "error"
)

// BackendError is returned when the backend was reached but answered with a failure
type BackendError struct {
	Status int
	Body   string
	Code   string // Set when the backend answered 2xx with {"success": false}
}

// Error implements the error interface
func (e *BackendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend rejected request (%s): %s", e.Code, e.Body)
	}
	return fmt.Sprintf("backend returned HTTP %d: %s", e.Status, e.Body)
}

// UnavailableError is returned when the backend could not be reached at all
type UnavailableError struct {
	Reason Outcome
	Err    error
}

// Error implements the error interface
func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable (%s): %v", e.Reason, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err means the backend could not be reached
func IsUnavailable(err error) bool {
	var unavailable *UnavailableError
	return errors.As(err, &unavailable)
}

// AsBackendError extracts a *BackendError from err
func AsBackendError(err error) (*BackendError, bool) {
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		return backendErr, true
	}
	return nil, false
}

// classify maps a transport error to an outcome
func classify(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return OutcomeCanceled
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return OutcomeConnectionRefused
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}
	return OutcomeError
}
