// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package placement implements the placement strategy abstraction (C6):
// for one table, choose column-placement distributions per partition,
// under one of several polymorphic strategies (full-replication,
// single-placement, minimum-cost, …), per spec.md §4.6.
//
// Each handler returns a three-valued outcome (Plans | Decline | Error)
// rather than mutating a flag, per spec.md DESIGN NOTES §9: "prefer a
// three-valued return ... flag-based early-exit ... is a source-shape
// artifact." Strategies are registered by name in a Registry, mirroring
// the teacher's BuiltinFunc registry (topdown/builtins.go).
package placement

import (
	"context"
	"fmt"

	"github.com/Slayzur02/Polypheny-DB/algebra"
	"github.com/Slayzur02/Polypheny-DB/catalog"
	"github.com/Slayzur02/Polypheny-DB/plan"
	"github.com/Slayzur02/Polypheny-DB/scancache"
)

// Outcome tags a Result as a list of plans, a cooperative decline, or an
// error.
type Outcome int

const (
	// Plans indicates Result.Builders holds the produced alternatives.
	Plans Outcome = iota
	// Decline indicates this strategy cannot serve the scan at all; the
	// driver treats the whole traversal as yielding no plan for this
	// router (spec.md §4.6's "cooperative abort" protocol).
	Decline
	// ErrorOutcome indicates a fatal error occurred (e.g. a catalog
	// inconsistency) while the strategy was building a distribution.
	ErrorOutcome
)

// Result is what a handler returns.
type Result struct {
	Outcome  Outcome
	Builders []*plan.Builder
	Err      error
}

// PlansResult wraps a non-empty list of builders as a successful result.
func PlansResult(builders []*plan.Builder) Result {
	return Result{Outcome: Plans, Builders: builders}
}

// DeclineResult signals a cooperative abort.
func DeclineResult() Result {
	return Result{Outcome: Decline}
}

// ErrorResult wraps a fatal error.
func ErrorResult(err error) Result {
	return Result{Outcome: ErrorOutcome, Err: err}
}

// Request bundles everything a handler needs to route one scan.
type Request struct {
	Snapshot   catalog.Snapshot
	Cache      *scancache.Cache
	Table      catalog.Table
	ScanNode   algebra.NodeID
	Columns    map[catalog.ColumnID]struct{}
	Partitions []catalog.PartitionID // partitions this scan must cover, ascending
}

// Strategy exposes the three handlers spec.md §4.6 describes. Ordering
// and tie-breaks inside a strategy are strategy-private, but across
// strategies the driver requires determinism: for identical inputs a
// strategy must return builders in a stable order (enforced here by
// strategies never ranging over Go maps when producing output order).
type Strategy interface {
	Name() string
	HandleHorizontal(ctx context.Context, req Request, builders []*plan.Builder) Result
	HandleVerticalOrReplicated(ctx context.Context, req Request, builders []*plan.Builder) Result
	HandleNone(ctx context.Context, req Request, builders []*plan.Builder) Result
}

// Registry maps strategy names to implementations, mirroring the
// teacher's builtinFunctions map (topdown/builtins.go).
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: map[string]Strategy{}}
}

// Register adds a strategy under its own Name().
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Get looks up a strategy by name.
func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("placement: no strategy registered under name %q", name)
	}
	return s, nil
}

// DefaultRegistry returns a Registry pre-populated with the three
// strategies this repository ships (full-replication, single-placement,
// minimum-cost), under their canonical names.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&FullReplication{})
	r.Register(&SinglePlacement{})
	r.Register(&MinimumCost{})
	return r
}

// Dispatch selects the strategy name the driver should use for a table,
// based on its partitioning property, per spec.md §4.6/§4.7. Horizontal
// tables use horizontalStrategy (the caller's configured choice of
// horizontal strategy, since more than one strategy can serve horizontal
// tables); vertical/replicated tables default to minimum-cost;
// unpartitioned tables always use single-placement (trivial, no
// alternative exists); mixed tables use full-replication, since a table
// that is both partitioned and replicated needs replica selection on top
// of partition coverage.
func Dispatch(kind catalog.PartitioningKind, horizontalStrategy string) string {
	switch kind {
	case catalog.KindNone:
		return NameSinglePlacement
	case catalog.KindHorizontalRange, catalog.KindHorizontalHash:
		if horizontalStrategy != "" {
			return horizontalStrategy
		}
		return NameMinimumCost
	case catalog.KindMixed:
		return NameFullReplication
	default: // KindVertical, KindReplicated
		return NameMinimumCost
	}
}

const (
	NameFullReplication = "full-replication"
	NameSinglePlacement = "single-placement"
	NameMinimumCost     = "minimum-cost"
)
