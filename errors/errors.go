// Package errors provides error handling for domainmcp.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing messages
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
//	if errors.Is(err, errors.ErrHandlerTimeout) {
//	    // handle timeout
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
	Join      = crdb.Join
)

// Sentinel errors for the registry, router, and dispatcher.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrRegistrationConflict indicates a domain_id is already registered.
	// Duplicate registrations are rejected, never silently replaced.
	ErrRegistrationConflict = New("domain already registered")

	// ErrInvalidDomain indicates a registration record failed validation
	ErrInvalidDomain = New("invalid domain registration")

	// ErrHandlerExecution indicates a handler returned an error or panicked
	ErrHandlerExecution = New("handler execution failed")

	// ErrHandlerTimeout indicates a handler exceeded its max processing time
	ErrHandlerTimeout = New("handler timed out")

	// ErrRateLimited indicates a domain's dispatch budget is exhausted
	ErrRateLimited = New("domain rate limited")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrNoSnapshot indicates the snapshot store has no rows yet
	ErrNoSnapshot = New("no snapshot available")
)

// IsRegistrationConflict checks if an error is or wraps ErrRegistrationConflict
func IsRegistrationConflict(err error) bool {
	return err != nil && Is(err, ErrRegistrationConflict)
}

// IsHandlerTimeout checks if an error is or wraps ErrHandlerTimeout
func IsHandlerTimeout(err error) bool {
	return err != nil && Is(err, ErrHandlerTimeout)
}

// IsHandlerExecution checks if an error is or wraps ErrHandlerExecution.
// Timeouts are reported separately; use IsHandlerTimeout for those.
func IsHandlerExecution(err error) bool {
	return err != nil && Is(err, ErrHandlerExecution)
}

// IsRateLimited checks if an error is or wraps ErrRateLimited
func IsRateLimited(err error) bool {
	return err != nil && Is(err, ErrRateLimited)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewRegistrationConflict creates a registration-conflict error naming the domain
func NewRegistrationConflict(domainID string) error {
	return Wrapf(ErrRegistrationConflict, "domain_id %q", domainID)
}

// NewInvalidDomain creates a validation error with a formatted reason
func NewInvalidDomain(format string, args ...interface{}) error {
	return Wrap(ErrInvalidDomain, Newf(format, args...).Error())
}

// WrapHandlerExecution wraps a handler failure while preserving the sentinel
func WrapHandlerExecution(err error, domainID string) error {
	return Wrapf(Join(ErrHandlerExecution, err), "domain %q", domainID)
}
