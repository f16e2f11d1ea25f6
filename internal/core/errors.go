package core

import (
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by ResultCache implementations when a key is
// absent or its entry has expired.
var ErrCacheMiss = errors.New("cache entry not found")

// ErrorKind classifies how a backend call failed
type ErrorKind string

const (
	// ErrorUnreachable means the backend could not be reached at all
	ErrorUnreachable ErrorKind = "unreachable"
	// ErrorTimeout means the call exceeded its bounded timeout
	ErrorTimeout ErrorKind = "timeout"
	// ErrorRejected means the backend answered with a non-success status
	ErrorRejected ErrorKind = "rejected"
	// ErrorMalformed means the backend answered but the payload did not parse
	ErrorMalformed ErrorKind = "malformed"
)

// BackendError is the typed failure returned by backend clients.
// Clients never retry internally; the orchestrator absorbs these into
// the per-segment fallback policy.
type BackendError struct {
	Backend string
	Kind    ErrorKind
	Err     error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s backend %s: %v", e.Backend, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s backend %s", e.Backend, e.Kind)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// NewBackendError builds a BackendError for the named backend
func NewBackendError(backend string, kind ErrorKind, err error) *BackendError {
	return &BackendError{Backend: backend, Kind: kind, Err: err}
}

// ValidationError rejects a malformed ProcessingRequest before any
// backend or cache is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a request validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
