// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package txn defines the transaction-context contract the router
// consumes (spec.md §6) plus a reference in-process implementation. The
// transaction manager itself is an external collaborator; this package
// only specifies and implements the narrow interface the router needs.
package txn

import "sync/atomic"

// FreshnessBound is the tolerated-staleness value a transaction carries.
// It is compared against catalog.PartitionPlacement.Staleness by the
// freshness resolver (package freshness): a placement satisfies the
// bound when its staleness is <= MaxStaleness.
type FreshnessBound struct {
	MaxStaleness int64
}

// Satisfies reports whether a staleness value is within this bound.
func (b FreshnessBound) Satisfies(staleness int64) bool {
	return staleness <= b.MaxStaleness
}

// Context is the transaction handle the router is given on entry.
type Context interface {
	// AcceptsOutdated reports whether this transaction accepts reads
	// from outdated copies.
	AcceptsOutdated() bool
	// FreshnessSpec returns the tolerated-staleness bound.
	FreshnessSpec() FreshnessBound
	// SetUseCache toggles whether the result cache may be used for this
	// query. The freshness path disables it (spec.md §4.4).
	SetUseCache(bool)
	// CancelFlag reports whether the query has been cancelled.
	CancelFlag() bool
}

// Basic is a minimal, concurrency-safe Context implementation suitable
// for tests and the CLI harness.
type Basic struct {
	outdated bool
	bound    FreshnessBound
	cache    atomic.Bool
	cancel   atomic.Bool
}

// NewBasic returns a Context that accepts outdated reads within bound
// when acceptsOutdated is true, and has its cache-use flag initialized
// to true (the driver flips it off if it takes the freshness path).
func NewBasic(acceptsOutdated bool, bound FreshnessBound) *Basic {
	b := &Basic{outdated: acceptsOutdated, bound: bound}
	b.cache.Store(true)
	return b
}

func (b *Basic) AcceptsOutdated() bool          { return b.outdated }
func (b *Basic) FreshnessSpec() FreshnessBound  { return b.bound }
func (b *Basic) SetUseCache(v bool)             { b.cache.Store(v) }
func (b *Basic) UseCache() bool                 { return b.cache.Load() }
func (b *Basic) CancelFlag() bool               { return b.cancel.Load() }

// Cancel marks the transaction cancelled. Intended for tests and for the
// caller's own cancellation propagation; the router only reads the flag.
func (b *Basic) Cancel() { b.cancel.Store(true) }
