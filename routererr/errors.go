// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package routererr defines the externally-visible error kinds the
// router core may surface, per spec.md §6/§7: InsufficientFreshness
// (always caught internally, never escapes), Deadlock, RoutingMisuse,
// and fatal catalog/consistency errors. Modeled on the teacher's
// storage.ErrCode/storage.Error pair.
package routererr

import "fmt"

// Kind enumerates the error kinds the router surfaces to its caller.
type Kind int

const (
	// Deadlock indicates the lock manager reported a deadlock while
	// acquiring locks for a plan. Fatal for this route() call; the
	// transaction layer decides whether to retry.
	Deadlock Kind = iota

	// RoutingMisuse indicates the DQL router was handed a DML/modify
	// node or a conditional-execute node, which is an upstream pipeline
	// misconfiguration (spec.md §4.7 precondition).
	RoutingMisuse

	// CatalogInconsistency indicates the catalog violated an invariant
	// the router depends on (missing placement, missing PRIMARY, …).
	CatalogInconsistency

	// Internal indicates an unexpected, otherwise-unclassified error.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Deadlock:
		return "Deadlock"
	case RoutingMisuse:
		return "RoutingMisuse"
	case CatalogInconsistency:
		return "CatalogInconsistency"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the error type route() returns for any of the Kind values
// above. It wraps an underlying cause where one exists so callers can
// still errors.Is/errors.As through to it.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("routing error (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("routing error (%s): %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether err is a routererr.Error of the given kind.
func Is(err error, kind Kind) bool {
	re, ok := err.(*Error)
	return ok && re.Kind == kind
}

func Deadlockf(cause error, format string, a ...interface{}) *Error {
	return &Error{Kind: Deadlock, Message: fmt.Sprintf(format, a...), Cause: cause}
}

func Misusef(format string, a ...interface{}) *Error {
	return &Error{Kind: RoutingMisuse, Message: fmt.Sprintf(format, a...)}
}

func Inconsistentf(cause error, format string, a ...interface{}) *Error {
	return &Error{Kind: CatalogInconsistency, Message: fmt.Sprintf(format, a...), Cause: cause}
}

func Internalf(cause error, format string, a ...interface{}) *Error {
	return &Error{Kind: Internal, Message: fmt.Sprintf(format, a...), Cause: cause}
}
