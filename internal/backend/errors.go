package backend

import (
	"errors"
	"fmt"
)

// ErrValidation is wrapped by errors caused by bad caller input
var ErrValidation = errors.New("validation failed")

// ErrInvalidPassword is returned when the backend rejects the admin password
var ErrInvalidPassword = &AuthenticationError{Reason: "invalid admin password"}

// AuthenticationError reports a failed or impossible login
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "backend authentication failed: " + e.Reason
}

// BackendError reports a response the client could not interpret
type BackendError struct {
	Endpoint string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s: %v", e.Endpoint, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// HTTPError is an unexpected HTTP status from the backend
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend %s returned status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("backend %s returned status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
