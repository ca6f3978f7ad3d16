// Package service provides business logic for the application.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure. Each kind maps to exactly one
// HTTP status at the handler layer.
type Kind string

const (
	KindUnauthenticated Kind = "Unauthenticated"
	KindInvalidArgument Kind = "InvalidArgument"
	KindForbidden       Kind = "Forbidden"
	KindNotFound        Kind = "NotFound"
	KindConflict        Kind = "Conflict"
	KindRateLimited     Kind = "RateLimited"
	KindUpstream        Kind = "UpstreamError"
)

// Error is a classified service failure.
// ChildID is set when a child account exists even though the call failed.
type Error struct {
	Kind    Kind
	Message string
	ChildID string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err. Unclassified errors are upstream failures.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUpstream
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// Common failures shared across services.
var (
	errUnauthenticated = newError(KindUnauthenticated, "authentication required")
	errParentOnly      = newError(KindForbidden, "only parent accounts can do this")
	errChildOnly       = newError(KindForbidden, "only child accounts can do this")
	errChildNotLinked  = newError(KindNotFound, "child not found")
)
