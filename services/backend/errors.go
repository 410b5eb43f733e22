package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the caller is not signed in (401).
	ErrUnauthorized = errors.New("backend: not authenticated")
	// ErrForbidden means the caller is signed in but not permitted (403).
	ErrForbidden = errors.New("backend: not permitted")
	// ErrNotFound means the addressed resource does not exist (404).
	ErrNotFound = errors.New("backend: not found")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("backend: %s %s: status %d", e.Method, e.Path, e.Status)
}

// Is lets errors.Is match a StatusError against the status sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Upstream reports whether the backend itself failed (5xx).
func (e *StatusError) Upstream() bool {
	return e.Status >= http.StatusInternalServerError
}

// TransportError wraps a failure to reach the backend or read its answer.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err means the backend could not serve the
// request at all: a transport failure or a 5xx.
func IsUnavailable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Upstream()
}
