package session

import "fmt"

// Custom errors

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

// InvalidStateError is returned for any transition attempted on a session
// that already reached a terminal status.
type InvalidStateError struct{ Message string }

func (e *InvalidStateError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

// PersistenceError wraps a storage failure so handlers can surface it as a
// recoverable condition instead of a generic 500.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
