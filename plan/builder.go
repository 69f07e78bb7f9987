// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package plan implements the routing plan builder state machine from
// spec.md §4.8: OPEN → EXTENDED* → FROZEN. Builders are forkable (deep
// structural clone) so the driver can explore alternatives introduced by
// set operations or multiple feasible placement distributions, and are
// closed into a frozen Plan when the traversal completes.
package plan

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Slayzur02/Polypheny-DB/algebra"
	"github.com/Slayzur02/Polypheny-DB/catalog"
)

type state int

const (
	stateOpen state = iota
	stateExtended
	stateFrozen
)

// Builder is a mutable handle wrapping a partially built physical
// algebra and a record of which physical placements each logical node
// was routed to.
type Builder struct {
	id    uuid.UUID
	state state
	arena *algebra.PhysicalArena
	root  algebra.PhysicalNodeID
	// hasRoot distinguishes "no root pushed yet" from a zero-value
	// PhysicalNodeID, since 0 is a legitimate arena index.
	hasRoot bool

	// routing records, per logical node, which (table, partition, store)
	// placements were used to serve it — the bookkeeping spec.md §3
	// calls "a record of which physical placements each logical node was
	// routed to".
	routing map[algebra.NodeID][]catalog.PartitionPlacement
}

// New returns a new OPEN builder over a fresh physical arena.
func New() *Builder {
	return &Builder{
		id:      uuid.New(),
		state:   stateOpen,
		arena:   algebra.NewPhysicalArena(),
		routing: map[algebra.NodeID][]catalog.PartitionPlacement{},
	}
}

// ID returns a diagnostic identifier for this builder. It is never used
// as a cache key or for any routing decision — only for logs/metrics.
func (b *Builder) ID() uuid.UUID {
	return b.id
}

// Arena exposes the underlying physical arena so routing logic can
// inspect already-built subtrees (e.g. to splice them into a SetOp).
func (b *Builder) Arena() *algebra.PhysicalArena {
	return b.arena
}

// Top returns the current root physical node ID and whether one has
// been pushed yet.
func (b *Builder) Top() (algebra.PhysicalNodeID, bool) {
	return b.root, b.hasRoot
}

// Push adds a new physical subtree as the builder's current top,
// transitioning OPEN/EXTENDED → EXTENDED.
func (b *Builder) Push(id algebra.PhysicalNodeID) {
	b.mustBeMutable("Push")
	b.root = id
	b.hasRoot = true
	b.state = stateExtended
}

// ReplaceTop swaps the current top for a new physical node ID, e.g. when
// wrapping the left side of a set operation with a SetOp node whose
// other input is the freshly built right side.
func (b *Builder) ReplaceTop(id algebra.PhysicalNodeID) {
	b.mustBeMutable("ReplaceTop")
	if !b.hasRoot {
		panic("plan: ReplaceTop called on a builder with no top")
	}
	b.root = id
	b.state = stateExtended
}

// RecordRouting appends the placements used to serve a logical node.
// Safe to call multiple times for the same node (e.g. a scan whose
// distribution spans several partitions).
func (b *Builder) RecordRouting(node algebra.NodeID, placements ...catalog.PartitionPlacement) {
	b.mustBeMutable("RecordRouting")
	b.routing[node] = append(b.routing[node], placements...)
}

// Routing returns the placements recorded for a logical node.
func (b *Builder) Routing(node algebra.NodeID) []catalog.PartitionPlacement {
	return b.routing[node]
}

// RoutingEntries returns a copy of every (node, placements) pair
// recorded so far. Used when splicing one builder's subtree into
// another's arena (e.g. a set operation's right side) so the
// destination builder's routing bookkeeping stays complete for nodes
// that originated in the spliced subtree.
func (b *Builder) RoutingEntries() map[algebra.NodeID][]catalog.PartitionPlacement {
	out := make(map[algebra.NodeID][]catalog.PartitionPlacement, len(b.routing))
	for node, placements := range b.routing {
		out[node] = append([]catalog.PartitionPlacement(nil), placements...)
	}
	return out
}

// Fork returns a deep structural clone of the builder: a new arena with
// identical contents, an independent routing map, and a fresh
// diagnostic ID. The clone starts in whatever state the original was in
// and can be mutated independently thereafter, per spec.md §3 ("Plan
// builders are forkable").
func (b *Builder) Fork() *Builder {
	clone := &Builder{
		id:      uuid.New(),
		state:   b.state,
		arena:   b.arena.Clone(),
		root:    b.root,
		hasRoot: b.hasRoot,
		routing: make(map[algebra.NodeID][]catalog.PartitionPlacement, len(b.routing)),
	}
	for node, placements := range b.routing {
		clone.routing[node] = append([]catalog.PartitionPlacement(nil), placements...)
	}
	return clone
}

// Freeze transitions the builder to FROZEN and returns the completed
// Plan. Freeze is terminal: further Push/ReplaceTop/RecordRouting calls
// panic, since they would indicate a driver bug (mutating a plan already
// handed back to the caller), not a routing failure.
func (b *Builder) Freeze() *Plan {
	b.mustBeMutable("Freeze")
	b.state = stateFrozen
	return &Plan{
		id:      b.id,
		arena:   b.arena,
		root:    b.root,
		hasRoot: b.hasRoot,
		routing: b.routing,
	}
}

func (b *Builder) mustBeMutable(op string) {
	if b.state == stateFrozen {
		panic(fmt.Sprintf("plan: %s called on a FROZEN builder", op))
	}
}

// Plan is a builder frozen after the traversal completes: a completed
// physical algebra tree with attached placement annotations.
type Plan struct {
	id      uuid.UUID
	arena   *algebra.PhysicalArena
	root    algebra.PhysicalNodeID
	hasRoot bool
	routing map[algebra.NodeID][]catalog.PartitionPlacement
}

// ID returns the plan's diagnostic identifier.
func (p *Plan) ID() uuid.UUID {
	return p.id
}

// Arena returns the plan's physical algebra.
func (p *Plan) Arena() *algebra.PhysicalArena {
	return p.arena
}

// Root returns the physical root node ID and whether the plan has one
// (an empty logical input produces a plan with no root).
func (p *Plan) Root() (algebra.PhysicalNodeID, bool) {
	return p.root, p.hasRoot
}

// Routing returns the placements used to serve a logical node.
func (p *Plan) Routing(node algebra.NodeID) []catalog.PartitionPlacement {
	return p.routing[node]
}
