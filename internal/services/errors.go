package services

import "errors"

// ErrPermissionDenied marks authorization failures. Handlers report these
// through the permission channel instead of the ordinary error response.
var ErrPermissionDenied = errors.New("permission denied")

// ErrUpstream wraps failures of external collaborators (nutrition webhook,
// payment provider).
var ErrUpstream = errors.New("upstream service failed")

// PermissionError carries the detailed reason behind ErrPermissionDenied.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return "permission denied: " + e.Reason
}

func (e *PermissionError) Unwrap() error {
	return ErrPermissionDenied
}

func denied(reason string) error {
	return &PermissionError{Reason: reason}
}
