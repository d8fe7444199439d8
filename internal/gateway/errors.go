package gateway

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a gateway failure
type ErrorKind string

const (
	KindNetwork          ErrorKind = "NETWORK"
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindPermissionDenied ErrorKind = "PERMISSION_DENIED"
	KindUnauthenticated  ErrorKind = "UNAUTHENTICATED"
	KindInvalidArgument  ErrorKind = "INVALID_ARGUMENT"
	KindConflict         ErrorKind = "CONFLICT"
	KindInternal         ErrorKind = "INTERNAL"
)

// Error is returned by every gateway operation
type Error struct {
	Kind       ErrorKind
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *Error) Error() string {
	target := e.Collection
	if e.ID != "" {
		target += "/" + e.ID
	}
	msg := fmt.Sprintf("%s %s: %s", e.Op, target, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying driver error
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, collection, id string, err error) *Error {
	return &Error{Kind: kind, Op: op, Collection: collection, ID: id, Err: err}
}

// KindOf returns the kind of a gateway error, or KindInternal for anything else
func KindOf(err error) ErrorKind {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a missing-document error
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// Message returns the text shown to a user for a failed call
func Message(err error) string {
	var gwErr *Error
	if errors.As(err, &gwErr) && gwErr.Err != nil {
		return gwErr.Err.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
