// Package errs provides the unified error type used across schemadiff.
//
// Every subsystem (database drivers, reflectors, inspectors, the comparer,
// report destinations) wraps its native errors into *errs.Error before
// returning them. Callers use the Is* predicates to branch on the kind
// without importing driver-specific packages.
//
// Usage:
//
//	// In a driver: wrap native errors.
//	return errs.Wrap(errs.ErrKindTimeout, "query timed out", pgErr)
//
//	// In the comparer: skip inspectors a connection cannot serve.
//	if errs.IsNotSupported(err) {
//	    log.Warn("inspector not supported")
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing backend-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no bucket
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL or storage operation error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure
	ErrKindUnknownInspector         // an inspector key that is not registered
	ErrKindNotSupported             // the connection lacks a reflection capability
	ErrKindNotImplemented           // the dialect cannot report this facet
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindUnknownInspector:
		return "unknown_inspector"
	case ErrKindNotSupported:
		return "not_supported"
	case ErrKindNotImplemented:
		return "not_implemented"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all schemadiff subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a formatted message.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller,
// such as a malformed ignore clause.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsUnknownInspector reports whether err names an unregistered inspector.
func IsUnknownInspector(err error) bool {
	return KindOf(err) == ErrKindUnknownInspector
}

// IsNotSupported reports whether err means a connection cannot serve an
// inspector at all. The comparer treats it as recoverable.
func IsNotSupported(err error) bool {
	return KindOf(err) == ErrKindNotSupported
}

// IsNotImplemented reports whether a dialect declined to report a facet.
// Inspectors treat it as an empty result.
func IsNotImplemented(err error) bool {
	return KindOf(err) == ErrKindNotImplemented
}

// KindOf extracts the ErrKind from the first *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
