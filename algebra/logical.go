// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package algebra defines the logical and physical relational algebra
// node shapes the router consumes and produces. Nodes are tagged
// variants addressed by arena index rather than a class hierarchy with
// mutable parent pointers (spec.md DESIGN NOTES §9): forking a plan
// becomes a controlled clone of the arena's node slice, not pointer
// surgery.
package algebra

import "github.com/Slayzur02/Polypheny-DB/queryinfo"
import "github.com/Slayzur02/Polypheny-DB/catalog"

// NodeID indexes a node within a LogicalArena.
type NodeID int

// SetOpKind enumerates the set operations preserved by the router.
type SetOpKind int

const (
	Union SetOpKind = iota
	Intersect
	Except
)

func (k SetOpKind) String() string {
	switch k {
	case Union:
		return "UNION"
	case Intersect:
		return "INTERSECT"
	case Except:
		return "EXCEPT"
	default:
		return "UNKNOWN_SETOP"
	}
}

// LogicalKind tags the shape of a LogicalNode.
type LogicalKind int

const (
	KindScan LogicalKind = iota
	KindValues
	KindSetOp
	KindOpaque
)

// LogicalNode is one node of the input algebra tree. Only Scan, Values,
// and SetOp carry router-meaningful structure; everything else is
// "opaque" (filter, project, aggregate, …) and is treated structurally
// only, per spec.md §6.
type LogicalNode struct {
	Kind LogicalKind

	// Scan
	Table  catalog.TableID
	ScanID queryinfo.ScanNodeID

	// SetOp
	SetOp SetOpKind

	// Opaque
	OpaqueLabel string

	// Children are input node IDs, in order. Scan and Values are leaves
	// (len(Children) == 0). SetOp has exactly 2: [left, right]. Opaque
	// has whatever arity the source algebra gave it.
	Children []NodeID
}

// Reserved OpaqueLabel values the upstream planner uses to mark nodes
// that must never reach the DQL router as a traversal root: DML/modify
// statements and conditional-execute control-flow nodes. The router
// only needs to recognize these at its entry point (spec.md §4.7
// precondition); everywhere else opaque nodes are structural only.
const (
	OpaqueLabelDML               = "DML"
	OpaqueLabelConditionalExecute = "CONDITIONAL_EXECUTE"
)

// LogicalArena owns the nodes of one input algebra tree.
type LogicalArena struct {
	nodes []LogicalNode
}

// NewLogicalArena returns an empty arena.
func NewLogicalArena() *LogicalArena {
	return &LogicalArena{}
}

// Add appends a node and returns its ID.
func (a *LogicalArena) Add(n LogicalNode) NodeID {
	a.nodes = append(a.nodes, n)
	return NodeID(len(a.nodes) - 1)
}

// Node returns the node at id.
func (a *LogicalArena) Node(id NodeID) LogicalNode {
	return a.nodes[id]
}

// Len returns the number of nodes in the arena.
func (a *LogicalArena) Len() int {
	return len(a.nodes)
}
