// Package apperr holds the error taxonomy shared by the classifier, the chat
// pipeline, the insight aggregator and the storage layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("already exists")
)

// InvalidInputError reports malformed input to a component.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

// PersistenceError wraps a failed write or read against the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// UpstreamServiceError wraps failures of the LLM or other remote services.
type UpstreamServiceError struct {
	Service string
	Err     error
}

func (e *UpstreamServiceError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Service, e.Err)
}

func (e *UpstreamServiceError) Unwrap() error { return e.Err }

func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamServiceError{Service: service, Err: err}
}

func IsInvalid(err error) bool {
	var target *InvalidInputError
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target *UpstreamServiceError
	return errors.As(err, &target)
}
