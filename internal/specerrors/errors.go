// Package specerrors defines the error taxonomy shared across specforge:
// sentinel kinds compared with errors.Is, and a structured wrapper that
// carries the failing operation, its kind, and an optional entity id.
package specerrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Compare with errors.Is against the Kind-specific
// sentinel, or use Is* helpers below which also unwrap *Error.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrConflict         = errors.New("conflict")
	ErrTransient        = errors.New("transient error")
	ErrFatal            = errors.New("fatal error")
	ErrUnknownOperation = errors.New("unknown operation")
)

// Error is the structured error type returned by every specforge
// component. Op identifies the failing call (e.g. "SpecStore.AddTask"),
// Kind is one of the sentinel values above, ID optionally names the
// entity involved (an operation id, a spec slug), and Err wraps the
// underlying cause.
type Error struct {
	Op      string
	Kind    error
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.ID != "":
		return fmt.Sprintf("%s [%s]: %s", e.Op, e.ID, e.detail())
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.detail())
	default:
		return e.detail()
	}
}

func (e *Error) detail() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Kind != nil {
		return e.Kind.Error()
	}
	return "unspecified error"
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// New constructs a specforge error of the given kind.
func New(op string, kind error, msg string) *Error {
	return &Error{Op: op, Kind: kind, Message: msg}
}

// Wrap constructs a specforge error wrapping an underlying cause.
func Wrap(op string, kind error, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// WithID attaches an entity id to an existing error, returning a copy.
func (e *Error) WithID(id string) *Error {
	c := *e
	c.ID = id
	return &c
}

func kindIs(err error, kind error) bool {
	var se *Error
	if errors.As(err, &se) && se.Kind != nil && errors.Is(se.Kind, kind) {
		return true
	}
	return errors.Is(err, kind)
}

func IsValidation(err error) bool       { return kindIs(err, ErrValidation) }
func IsNotFound(err error) bool         { return kindIs(err, ErrNotFound) }
func IsPermissionDenied(err error) bool { return kindIs(err, ErrPermissionDenied) }
func IsConflict(err error) bool         { return kindIs(err, ErrConflict) }
func IsTransient(err error) bool        { return kindIs(err, ErrTransient) }
func IsFatal(err error) bool            { return kindIs(err, ErrFatal) }
func IsUnknownOperation(err error) bool { return kindIs(err, ErrUnknownOperation) }

// Retryable reports whether an error should be retried under backoff
// (transient failures and handler timeouts only).
func Retryable(err error) bool {
	return IsTransient(err)
}
