// Package pipelineerr defines the error taxonomy shared by the pipeline stages.
package pipelineerr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindConfiguration is a missing or invalid environment variable, secret or
	// state document. Fatal, retrying will not help.
	KindConfiguration Kind = iota + 1
	// KindConnectivity is a failed call to an upstream API or a storage service.
	// Left to the invocation framework's retry policy.
	KindConnectivity
	// KindValidation is a source record missing a required field. Fatal for the
	// whole batch.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindConnectivity:
		return "connectivity"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// Error carries the kind of failure plus the operation and resource it happened on.
type Error struct {
	Kind     Kind
	Op       string
	Resource string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error: %s", e.Kind, e.Op)
	if e.Resource != "" {
		msg += " (" + e.Resource + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration returns a KindConfiguration error.
func Configuration(op, resource string, err error) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Resource: resource, Err: err}
}

// Connectivity returns a KindConnectivity error.
func Connectivity(op, resource string, err error) *Error {
	return &Error{Kind: KindConnectivity, Op: op, Resource: resource, Err: err}
}

// Validation returns a KindValidation error.
func Validation(op, resource string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Resource: resource, Err: err}
}

// IsKind reports whether any *Error in err's chain has the given kind.
// A connectivity error wrapping a validation error matches both kinds.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var pe *Error
		if !errors.As(err, &pe) {
			return false
		}
		if pe.Kind == kind {
			return true
		}
		err = pe.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
