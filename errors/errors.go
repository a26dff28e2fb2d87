// Package errors provides error handling for the AFF4 library.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - PII-safe error formatting
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle missing triple
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Aggregation and classification. Flush uses CombineErrors to report
// every object that failed to finalize rather than stopping at the
// first; Mark ties an error into the sentinel taxonomy so errors.Is
// works across wrapping.
var (
	CombineErrors = crdb.CombineErrors
	Mark          = crdb.Mark
)

// Assertions and panics
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Sentinel errors for the AFF4 resolver core.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested triple or subject does not exist.
	// This is an expected, recoverable outcome of Get and DeleteSubject.
	ErrNotFound = New("not found")

	// ErrTypeMismatch indicates a cached or constructed object does not
	// satisfy the capability the caller asked for.
	ErrTypeMismatch = New("type mismatch")

	// ErrUnregisteredType indicates no constructor is registered for a
	// resolved type name or URN scheme.
	ErrUnregisteredType = New("unregistered type")

	// ErrInitFailed indicates an object's own load-from-URN hook failed,
	// e.g. malformed backing data.
	ErrInitFailed = New("object initialization failed")

	// ErrIO indicates a persistence encode/decode or storage access failure.
	ErrIO = New("io error")

	// ErrInvalidInput indicates malformed caller input, e.g. an
	// unparseable URN or unknown value type name.
	ErrInvalidInput = New("invalid input")
)

// IsNotFound checks if an error is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}
