package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds shared by the backend client and the session store
var (
	ErrValidation     = errors.New("validation error")
	ErrAuthentication = errors.New("authentication error")
	ErrForbidden      = errors.New("permission denied")
	ErrNetwork        = errors.New("network error")
	ErrNotFound       = errors.New("not found")

	// Any other non-2xx reply from the backend
	ErrBackend = errors.New("backend error")

	// Credential storage faults
	ErrStorage = errors.New("storage error")

	ErrNoRefreshToken = errors.New("no refresh token")
)

// BackendError carries the HTTP status and decoded error payload of a failed backend call.
// It unwraps to its Kind so callers can use errors.Is.
type BackendError struct {
	Kind   error
	Status int
	Detail string              // "detail" member of the payload, if any
	Fields map[string][]string // field-level validation messages
}

func (e *BackendError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Kind, e.Status)
}

func (e *BackendError) Unwrap() error {
	return e.Kind
}

// KindForStatus maps an HTTP status onto an error kind
func KindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrAuthentication
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrBackend
	}
}

// Message returns the backend supplied detail for err, or fallback when there is none.
func Message(err error, fallback string) string {
	var be *BackendError
	if errors.As(err, &be) && be.Detail != "" {
		return be.Detail
	}
	return fallback
}

// FirstFieldError returns the first message found for the given fields, checked in order.
func FirstFieldError(err error, fields ...string) (string, bool) {
	var be *BackendError
	if !errors.As(err, &be) {
		return "", false
	}
	for _, f := range fields {
		if msgs := be.Fields[f]; len(msgs) > 0 && msgs[0] != "" {
			return msgs[0], true
		}
	}
	return "", false
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
