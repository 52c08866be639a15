// Package apperr defines the typed errors returned by the repository layer.
//
// Every public repository operation either succeeds or returns an *Error
// whose Kind tells the caller what went wrong:
//   - Validation: missing required field or malformed payload
//   - Conflict: unique value already taken (user email)
//   - NotFound: a write targeted a record that does not exist
//   - StoreUnavailable: the document store rejected or failed the request
//
// Nothing in this layer retries. Retry and backoff belong to the caller.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindConflict         Kind = "conflict"
	KindNotFound         Kind = "not_found"
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error is a classified repository error.
type Error struct {
	Kind Kind
	Op   string // operation, e.g. "leads.Add"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return string(e.Kind) + ": " + msg
	}
	return e.Op + ": " + string(e.Kind) + ": " + msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validationf returns a validation error.
func Validationf(op, format string, args ...any) error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflictf returns a conflict error.
func Conflictf(op, format string, args ...any) error {
	return &Error{Kind: KindConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf returns a not-found error.
func NotFoundf(op, format string, args ...any) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Store wraps a backend failure as StoreUnavailable. Errors that are
// already classified pass through unchanged; nil stays nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStoreUnavailable, Op: op, Msg: "document store request failed", Err: err}
}

// KindOf returns the Kind of err, or "" if err is not classified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
