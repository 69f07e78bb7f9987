// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package algebra

import "github.com/Slayzur02/Polypheny-DB/catalog"

// PhysicalNodeID indexes a node within a PhysicalArena.
type PhysicalNodeID int

// PhysicalKind tags the shape of a PhysicalNode.
type PhysicalKind int

const (
	// KindPhysicalScan reads one (partition, store) placement,
	// projecting the given columns.
	KindPhysicalScan PhysicalKind = iota
	// KindPhysicalJoin row-id-equi-joins two children that each cover a
	// disjoint column subset of the same partition (a vertical split).
	KindPhysicalJoin
	// KindPhysicalUnion unions children in partition-ID order (a
	// horizontal split).
	KindPhysicalUnion
	// KindPhysicalSetOp mirrors a logical SetOp: its two children are the
	// routed left/right subtrees, per spec.md §8 "Set-op preservation".
	KindPhysicalSetOp
	// KindPhysicalValues is a physical materialization of a Values node.
	KindPhysicalValues
	// KindPhysicalOpaque duplicates a structurally-opaque logical node.
	KindPhysicalOpaque
)

// PhysicalNode is one node of a routing plan's physical algebra.
type PhysicalNode struct {
	Kind     PhysicalKind
	Children []PhysicalNodeID

	// Scan
	Table     catalog.TableID
	Partition catalog.PartitionID
	Store     catalog.StoreID
	Role      catalog.PlacementRole
	Columns   []catalog.ColumnID

	// SetOp
	SetOp SetOpKind

	// Opaque
	OpaqueLabel string
}

// PhysicalArena owns the nodes of one in-progress or frozen plan.
// Builders clone the whole arena to fork alternatives (spec.md §3's
// "forkable (deep structural clone)").
type PhysicalArena struct {
	nodes []PhysicalNode
}

// NewPhysicalArena returns an empty arena.
func NewPhysicalArena() *PhysicalArena {
	return &PhysicalArena{}
}

// Add appends a node and returns its ID.
func (a *PhysicalArena) Add(n PhysicalNode) PhysicalNodeID {
	a.nodes = append(a.nodes, n)
	return PhysicalNodeID(len(a.nodes) - 1)
}

// Node returns the node at id.
func (a *PhysicalArena) Node(id PhysicalNodeID) PhysicalNode {
	return a.nodes[id]
}

// Len returns the number of nodes in the arena.
func (a *PhysicalArena) Len() int {
	return len(a.nodes)
}

// Nodes returns the arena's nodes in ID order. Intended for structural
// comparison in tests (e.g. via go-cmp); callers must not mutate the
// returned slice or its elements.
func (a *PhysicalArena) Nodes() []PhysicalNode {
	return a.nodes
}

// Clone deep-copies the arena, including each node's Children/Columns
// slices, so mutating the clone never aliases the original.
func (a *PhysicalArena) Clone() *PhysicalArena {
	clone := &PhysicalArena{nodes: make([]PhysicalNode, len(a.nodes))}
	for i, n := range a.nodes {
		cn := n
		if n.Children != nil {
			cn.Children = append([]PhysicalNodeID(nil), n.Children...)
		}
		if n.Columns != nil {
			cn.Columns = append([]catalog.ColumnID(nil), n.Columns...)
		}
		clone.nodes[i] = cn
	}
	return clone
}

// BuildJoinedScan constructs the physical subtree C3 emits for a
// distribution: one scan per (partition, column-placement list), row-id
// joined within a partition across stores, unioned across partitions in
// ascending partition-ID order. When the distribution covers exactly one
// placement per partition of a single column set, it short-circuits to a
// single multi-column scan per partition unioned together (spec.md
// §4.3), skipping the join node entirely.
func BuildJoinedScan(arena *PhysicalArena, table catalog.TableID, distribution []PartitionScans) PhysicalNodeID {
	if len(distribution) == 0 {
		return arena.Add(PhysicalNode{Kind: KindPhysicalValues})
	}

	perPartition := make([]PhysicalNodeID, 0, len(distribution))
	for _, ps := range distribution {
		perPartition = append(perPartition, buildPartitionScan(arena, table, ps))
	}
	if len(perPartition) == 1 {
		return perPartition[0]
	}
	return arena.Add(PhysicalNode{Kind: KindPhysicalUnion, Children: perPartition})
}

// PartitionScans is one partition's worth of column-placement scans, in
// the order the distribution specified them.
type PartitionScans struct {
	Partition catalog.PartitionID
	Scans     []PlacementScan
}

// PlacementScan is one column placement to scan for a partition.
type PlacementScan struct {
	Store   catalog.StoreID
	Role    catalog.PlacementRole
	Columns []catalog.ColumnID
}

// GraftInto deep-copies the subtree rooted at srcRoot within src into
// dst, remapping child indices as it goes, and returns the new root ID
// within dst. Used to splice a cached, independently-built subtree
// (which lives in its own arena) into a plan builder's arena without
// mutating the cached original.
func GraftInto(dst *PhysicalArena, src *PhysicalArena, srcRoot PhysicalNodeID) PhysicalNodeID {
	remap := make(map[PhysicalNodeID]PhysicalNodeID)
	var walk func(id PhysicalNodeID) PhysicalNodeID
	walk = func(id PhysicalNodeID) PhysicalNodeID {
		if mapped, ok := remap[id]; ok {
			return mapped
		}
		n := src.Node(id)
		newChildren := make([]PhysicalNodeID, len(n.Children))
		for i, c := range n.Children {
			newChildren[i] = walk(c)
		}
		n.Children = newChildren
		if n.Columns != nil {
			n.Columns = append([]catalog.ColumnID(nil), n.Columns...)
		}
		newID := dst.Add(n)
		remap[id] = newID
		return newID
	}
	return walk(srcRoot)
}

func buildPartitionScan(arena *PhysicalArena, table catalog.TableID, ps PartitionScans) PhysicalNodeID {
	if len(ps.Scans) == 1 {
		s := ps.Scans[0]
		return arena.Add(PhysicalNode{
			Kind:      KindPhysicalScan,
			Table:     table,
			Partition: ps.Partition,
			Store:     s.Store,
			Role:      s.Role,
			Columns:   s.Columns,
		})
	}
	children := make([]PhysicalNodeID, 0, len(ps.Scans))
	for _, s := range ps.Scans {
		children = append(children, arena.Add(PhysicalNode{
			Kind:      KindPhysicalScan,
			Table:     table,
			Partition: ps.Partition,
			Store:     s.Store,
			Role:      s.Role,
			Columns:   s.Columns,
		}))
	}
	return arena.Add(PhysicalNode{Kind: KindPhysicalJoin, Children: children})
}
