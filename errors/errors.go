package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrInvalidInput is returned, wrapped in an *Error, when a required identifier or
// argument is missing or malformed. No remote call is made in that case.
var ErrInvalidInput = stderrors.New("gcp: invalid input")

// Error records the helper operation and resource that failed. It wraps the
// underlying SDK error unchanged.
type Error struct {
	// Op is the helper operation that failed (e.g. "bigquery.CreateTable").
	Op string

	// Resource identifies the remote resource, e.g. "my-project.my_dataset.events"
	// or "gs://bucket/object". Empty when the operation is not resource scoped.
	Resource string

	// Err is the underlying error, usually straight from the vendor SDK.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Code classifies the wrapped error.
func (e *Error) Code() ErrorCode {
	return Code(e.Err)
}

// New wraps err with operation and resource context. It returns nil when err is nil.
func New(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Resource: resource, Err: err}
}

// Invalid returns an *Error wrapping ErrInvalidInput with a message describing the problem.
func Invalid(op, resource, format string, args ...any) error {
	return &Error{
		Op:       op,
		Resource: resource,
		Err:      fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...)),
	}
}
