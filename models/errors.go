package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by services, controller and gateway
var (
	ErrAuthRequired         = errors.New("authentication required")
	ErrTokenIssuance        = errors.New("token issuance failed")
	ErrProfileFetch         = errors.New("profile fetch failed")
	ErrOrganizationMismatch = errors.New("stored organization is not a current membership")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrTransitionInProgress = errors.New("a session transition is already in progress")
	ErrStaleTransition      = errors.New("session transition superseded")
	ErrNoActiveOrganization = errors.New("no active organization")
	ErrUnknownOrganization  = errors.New("organization is not one of the user's memberships")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrValidation           = errors.New("validation failed")
	ErrRequestFailed        = errors.New("backend request failed")
)

// RequestError is a failed backend call. Kind is one of the sentinel errors
// above so callers can use errors.Is.
type RequestError struct {
	Kind       error
	Op         string
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Kind
}

// IsTransportFailure reports whether err is a request that never got a
// backend response (connection refused, timeout, cancelled context)
func IsTransportFailure(err error) bool {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	return reqErr.StatusCode == 0 && reqErr.Kind != ErrNotAuthenticated
}
