// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package catalog

import "fmt"

// ErrCode represents the collection of errors the catalog view may
// return. An entity-not-found lookup is always a fatal routing error per
// spec.md §4.1 — the catalog is assumed consistent once constructed.
type ErrCode int

const (
	// InternalErr indicates an unexpected, internal catalog error.
	InternalErr ErrCode = iota

	// NotFoundErr indicates the referenced entity does not exist in the
	// snapshot.
	NotFoundErr

	// InvariantErr indicates a catalog invariant from spec.md §3 (e.g.
	// "every partition has exactly one PRIMARY placement") was violated
	// in the snapshot data.
	InvariantErr
)

// Error is the error type returned by the catalog view.
type Error struct {
	Code    ErrCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("catalog error (code: %d): %v", e.Code, e.Message)
}

// IsNotFound returns true if err is a catalog NotFoundErr.
func IsNotFound(err error) bool {
	var ce *Error
	if e, ok := err.(*Error); ok {
		ce = e
	}
	return ce != nil && ce.Code == NotFoundErr
}

func notFoundErrorf(format string, a ...interface{}) *Error {
	return &Error{Code: NotFoundErr, Message: fmt.Sprintf(format, a...)}
}

func invariantErrorf(format string, a ...interface{}) *Error {
	return &Error{Code: InvariantErr, Message: fmt.Sprintf(format, a...)}
}
