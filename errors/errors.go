// Package errors provides error handling for Replenix.
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
//	if errors.Is(err, errors.ErrRunTimeout) {
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
	Is         = crdb.Is
	IsAny      = crdb.IsAny
	As         = crdb.As
	Unwrap     = crdb.Unwrap
	UnwrapAll  = crdb.UnwrapAll
	UnwrapOnce = crdb.UnwrapOnce

	GetAllDetails  = crdb.GetAllDetails
	FlattenDetails = crdb.FlattenDetails
)

// Assertions and panics
var (
	AssertionFailedf    = crdb.AssertionFailedf
	HasAssertionFailure = crdb.HasAssertionFailure
)

// Sentinel errors for the replenishment pipeline.
// Use these with errors.Is() for type-safe error checking.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNoGroups indicates normalization produced no supplier groups to process
	ErrNoGroups = New("no supplier groups derivable from input")

	// ErrGeneration indicates a content generation collaborator failed
	ErrGeneration = New("content generation failed")

	// ErrRetrieval indicates the context retrieval collaborator failed
	ErrRetrieval = New("context retrieval failed")

	// ErrRender indicates the document rendering collaborator failed
	ErrRender = New("document rendering failed")

	// ErrRunTimeout indicates the run deadline expired before all groups
	// reached a terminal state
	ErrRunTimeout = New("pipeline run timed out")

	// ErrDuplicateArtifact indicates the same (snapshot date, supplier, stage)
	// artifact was aggregated twice, a programming fault fatal to the run
	ErrDuplicateArtifact = New("duplicate artifact key")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")
)

// IsRunTimeout checks if an error is or wraps ErrRunTimeout
func IsRunTimeout(err error) bool {
	return err != nil && Is(err, ErrRunTimeout)
}

// IsGroupFatal reports whether an error belongs to the family of
// collaborator failures that fail only the owning supplier group.
func IsGroupFatal(err error) bool {
	return err != nil && IsAny(err, ErrGeneration, ErrRetrieval, ErrRender)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
