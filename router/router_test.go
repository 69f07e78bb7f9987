// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package router

import (
	"context"
	"testing"

	"github.com/Slayzur02/Polypheny-DB/algebra"
	"github.com/Slayzur02/Polypheny-DB/catalog"
	"github.com/Slayzur02/Polypheny-DB/locks"
	"github.com/Slayzur02/Polypheny-DB/placement"
	"github.com/Slayzur02/Polypheny-DB/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/routererr"
	"github.com/Slayzur02/Polypheny-DB/scancache"
	"github.com/Slayzur02/Polypheny-DB/txn"
)

func colSet(ids ...catalog.ColumnID) map[catalog.ColumnID]struct{} {
	m := make(map[catalog.ColumnID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func partSet(ids ...catalog.PartitionID) map[catalog.PartitionID]struct{} {
	m := make(map[catalog.PartitionID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func newDeps(snap catalog.Snapshot) Deps {
	return Deps{
		Snapshot:   snap,
		Cache:      scancache.New(64),
		Locks:      locks.NewManager(),
		Strategies: placement.DefaultRegistry(),
	}
}

// TestRoute_SinglePlacementScan is spec.md §8 scenario 1.
func TestRoute_SinglePlacementScan(t *testing.T) {
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 1, Name: "T1", Columns: []catalog.ColumnID{1, 2}}},
		[]catalog.Column{{ID: 1, Table: 1, Name: "a"}, {ID: 2, Table: 1, Name: "b"}},
		[]catalog.ColumnPlacement{{Column: 1, Store: 100}, {Column: 2, Store: 100}},
		[]catalog.Partition{{ID: 1, Table: 1}},
		[]catalog.PartitionPlacement{{Partition: 1, Store: 100, Role: catalog.RolePrimary}},
	)

	arena := algebra.NewLogicalArena()
	scan := arena.Add(algebra.LogicalNode{Kind: algebra.KindScan, Table: 1, ScanID: 0})

	qi := queryinfo.New(
		map[catalog.TableID]map[catalog.ColumnID]struct{}{1: colSet(1)},
		nil,
	)
	tx := txn.NewBasic(false, txn.FreshnessBound{})

	r := New(newDeps(snap))
	builders, err := r.Route(context.Background(), arena, scan, tx, qi)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(builders) != 1 {
		t.Fatalf("expected exactly one builder, got %d", len(builders))
	}
	plan := builders[0].Freeze()
	root, ok := plan.Root()
	if !ok {
		t.Fatalf("expected a root")
	}
	node := plan.Arena().Node(root)
	if node.Kind != algebra.KindPhysicalScan {
		t.Fatalf("expected a physical scan root, got kind %v", node.Kind)
	}
	if node.Store != 100 {
		t.Fatalf("expected scan on store 100, got %d", node.Store)
	}
}

// TestRoute_VerticalSplit is spec.md §8 scenario 2.
func TestRoute_VerticalSplit(t *testing.T) {
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 2, Name: "T2", Columns: []catalog.ColumnID{1, 2}, Partitioning: catalog.KindVertical}},
		[]catalog.Column{{ID: 1, Table: 2, Name: "a"}, {ID: 2, Table: 2, Name: "b"}},
		[]catalog.ColumnPlacement{{Column: 1, Store: 100}, {Column: 2, Store: 200}},
		[]catalog.Partition{{ID: 1, Table: 2}},
		[]catalog.PartitionPlacement{{Partition: 1, Store: 100, Role: catalog.RolePrimary}, {Partition: 1, Store: 200, Role: catalog.RolePrimary}},
	)

	arena := algebra.NewLogicalArena()
	scan := arena.Add(algebra.LogicalNode{Kind: algebra.KindScan, Table: 2, ScanID: 0})

	qi := queryinfo.New(map[catalog.TableID]map[catalog.ColumnID]struct{}{2: colSet(1, 2)}, nil)
	tx := txn.NewBasic(false, txn.FreshnessBound{})

	r := New(newDeps(snap))
	builders, err := r.Route(context.Background(), arena, scan, tx, qi)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(builders) != 1 {
		t.Fatalf("expected exactly one builder, got %d", len(builders))
	}
	plan := builders[0].Freeze()
	root, _ := plan.Root()
	node := plan.Arena().Node(root)
	if node.Kind != algebra.KindPhysicalJoin {
		t.Fatalf("expected a physical join root for a vertical split, got kind %v", node.Kind)
	}
	if len(node.Children) != 2 {
		t.Fatalf("expected join to have 2 children, got %d", len(node.Children))
	}
}

// TestRoute_HorizontalPartitioning is spec.md §8 scenario 3.
func TestRoute_HorizontalPartitioning(t *testing.T) {
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 3, Name: "T3", Columns: []catalog.ColumnID{1}, Partitioning: catalog.KindHorizontalRange}},
		[]catalog.Column{{ID: 1, Table: 3, Name: "a"}},
		nil,
		[]catalog.Partition{{ID: 1, Table: 3}, {ID: 2, Table: 3}, {ID: 3, Table: 3}},
		[]catalog.PartitionPlacement{
			{Partition: 1, Store: 100, Role: catalog.RolePrimary}, // X
			{Partition: 2, Store: 200, Role: catalog.RolePrimary}, // Y
			{Partition: 3, Store: 300, Role: catalog.RolePrimary}, // Z
		},
	)

	arena := algebra.NewLogicalArena()
	scan := arena.Add(algebra.LogicalNode{Kind: algebra.KindScan, Table: 3, ScanID: 7})

	qi := queryinfo.New(
		map[catalog.TableID]map[catalog.ColumnID]struct{}{3: colSet(1)},
		map[queryinfo.ScanNodeID]map[catalog.PartitionID]struct{}{7: partSet(1, 3)},
	)
	tx := txn.NewBasic(false, txn.FreshnessBound{})

	r := New(newDeps(snap))
	builders, err := r.Route(context.Background(), arena, scan, tx, qi)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(builders) != 1 {
		t.Fatalf("expected exactly one builder, got %d", len(builders))
	}
	plan := builders[0].Freeze()
	routing := plan.Routing(scan)
	stores := map[catalog.StoreID]struct{}{}
	for _, pp := range routing {
		stores[pp.Store] = struct{}{}
	}
	if _, touchedY := stores[200]; touchedY {
		t.Fatalf("expected store Y (200) to not be touched, routing=%v", routing)
	}
	if _, touchedX := stores[100]; !touchedX {
		t.Fatalf("expected store X (100) to be touched")
	}
	if _, touchedZ := stores[300]; !touchedZ {
		t.Fatalf("expected store Z (300) to be touched")
	}
}

func freshnessFixture() *catalog.StaticSnapshot {
	return catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 4, Name: "T4", Columns: []catalog.ColumnID{1}, SupportsOutdated: true}},
		[]catalog.Column{{ID: 1, Table: 4, Name: "a"}},
		nil,
		[]catalog.Partition{{ID: 1, Table: 4}, {ID: 2, Table: 4}},
		[]catalog.PartitionPlacement{
			{Partition: 1, Store: 10, Role: catalog.RolePrimary, Staleness: 0},
			{Partition: 1, Store: 11, Role: catalog.RoleRefreshable, Staleness: 2},
			{Partition: 1, Store: 12, Role: catalog.RoleRefreshable, Staleness: 4},
			{Partition: 2, Store: 20, Role: catalog.RolePrimary, Staleness: 0},
		},
	)
}

// TestRoute_FreshnessSuccess is spec.md §8 scenario 4.
func TestRoute_FreshnessSuccess(t *testing.T) {
	snap := freshnessFixture()
	arena := algebra.NewLogicalArena()
	scan := arena.Add(algebra.LogicalNode{Kind: algebra.KindScan, Table: 4, ScanID: 0})

	qi := queryinfo.New(map[catalog.TableID]map[catalog.ColumnID]struct{}{4: colSet(1)}, nil)
	tx := txn.NewBasic(true, txn.FreshnessBound{MaxStaleness: 5})

	r := New(newDeps(snap))
	builders, err := r.Route(context.Background(), arena, scan, tx, qi)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(builders) == 0 {
		t.Fatalf("expected at least one builder on the freshness path")
	}
	if tx.UseCache() {
		t.Fatalf("expected use-cache flag cleared on the freshness path")
	}
}

// TestRoute_FreshnessFallback is spec.md §8 scenario 5: no placement
// satisfies the (impossibly tight) bound, so InsufficientFreshness must
// be caught and the driver falls back to the lock path using PRIMARY
// placements.
func TestRoute_FreshnessFallback(t *testing.T) {
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 4, Name: "T4", Columns: []catalog.ColumnID{1}, SupportsOutdated: true}},
		[]catalog.Column{{ID: 1, Table: 4, Name: "a"}},
		nil,
		[]catalog.Partition{{ID: 1, Table: 4}, {ID: 2, Table: 4}},
		[]catalog.PartitionPlacement{
			{Partition: 1, Store: 10, Role: catalog.RolePrimary, Staleness: 0},
			{Partition: 1, Store: 11, Role: catalog.RoleRefreshable, Staleness: 2},
			{Partition: 2, Store: 20, Role: catalog.RolePrimary, Staleness: 0},
			{Partition: 2, Store: 21, Role: catalog.RoleRefreshable, Staleness: 99},
		},
	)
	arena := algebra.NewLogicalArena()
	scan := arena.Add(algebra.LogicalNode{Kind: algebra.KindScan, Table: 4, ScanID: 0})

	qi := queryinfo.New(map[catalog.TableID]map[catalog.ColumnID]struct{}{4: colSet(1)}, nil)
	tx := txn.NewBasic(true, txn.FreshnessBound{MaxStaleness: -1})

	r := New(newDeps(snap))
	builders, err := r.Route(context.Background(), arena, scan, tx, qi)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(builders) != 1 {
		t.Fatalf("expected exactly one builder on the lock-path fallback, got %d", len(builders))
	}
	if !tx.UseCache() {
		t.Fatalf("expected use-cache flag to remain true on the lock path")
	}
	routing := builders[0].Routing(scan)
	for _, pp := range routing {
		if pp.Role != catalog.RolePrimary {
			t.Fatalf("expected only PRIMARY placements on the lock path, got role %v", pp.Role)
		}
	}
}

// TestRoute_SetOperationFork is spec.md §8 scenario 6, run for all three
// set-op kinds: the physical root must preserve the logical op, not just
// its shape (spec.md §8 "Set-op preservation": "the physical root is a
// SetOp(op, L', R')", not a SetOp of whatever kind the zero value is).
func TestRoute_SetOperationFork(t *testing.T) {
	for _, op := range []algebra.SetOpKind{algebra.Union, algebra.Intersect, algebra.Except} {
		t.Run(op.String(), func(t *testing.T) {
			snap := catalog.NewStaticSnapshot(
				[]catalog.Table{{ID: 1, Name: "T1", Columns: []catalog.ColumnID{1}}},
				[]catalog.Column{{ID: 1, Table: 1, Name: "a"}},
				[]catalog.ColumnPlacement{{Column: 1, Store: 100}},
				[]catalog.Partition{{ID: 1, Table: 1}},
				[]catalog.PartitionPlacement{{Partition: 1, Store: 100, Role: catalog.RolePrimary}},
			)

			arena := algebra.NewLogicalArena()
			left := arena.Add(algebra.LogicalNode{Kind: algebra.KindScan, Table: 1, ScanID: 0})
			right := arena.Add(algebra.LogicalNode{Kind: algebra.KindScan, Table: 1, ScanID: 1})
			setOp := arena.Add(algebra.LogicalNode{Kind: algebra.KindSetOp, SetOp: op, Children: []algebra.NodeID{left, right}})

			qi := queryinfo.New(map[catalog.TableID]map[catalog.ColumnID]struct{}{1: colSet(1)}, nil)
			tx := txn.NewBasic(false, txn.FreshnessBound{})

			r := New(newDeps(snap))
			builders, err := r.Route(context.Background(), arena, setOp, tx, qi)
			if err != nil {
				t.Fatalf("Route: %v", err)
			}
			if len(builders) != 1 {
				t.Fatalf("expected exactly one builder, got %d", len(builders))
			}
			plan := builders[0].Freeze()
			root, _ := plan.Root()
			node := plan.Arena().Node(root)
			if node.Kind != algebra.KindPhysicalSetOp {
				t.Fatalf("expected a physical SetOp root, got kind %v", node.Kind)
			}
			if node.SetOp != op {
				t.Fatalf("expected physical SetOp kind %v, got %v", op, node.SetOp)
			}
			if len(node.Children) != 2 {
				t.Fatalf("expected SetOp to have 2 children, got %d", len(node.Children))
			}
			l := plan.Arena().Node(node.Children[0])
			rgt := plan.Arena().Node(node.Children[1])
			if l.Kind != algebra.KindPhysicalScan || rgt.Kind != algebra.KindPhysicalScan {
				t.Fatalf("expected both SetOp children to be physical scans, got %v and %v", l.Kind, rgt.Kind)
			}
		})
	}
}

func TestRoute_RejectsDMLRoot(t *testing.T) {
	snap := catalog.NewStaticSnapshot(nil, nil, nil, nil, nil)
	arena := algebra.NewLogicalArena()
	dml := arena.Add(algebra.LogicalNode{Kind: algebra.KindOpaque, OpaqueLabel: algebra.OpaqueLabelDML})

	qi := queryinfo.New(nil, nil)
	tx := txn.NewBasic(false, txn.FreshnessBound{})

	r := New(newDeps(snap))
	_, err := r.Route(context.Background(), arena, dml, tx, qi)
	if !routererr.Is(err, routererr.RoutingMisuse) {
		t.Fatalf("expected RoutingMisuse error, got %v", err)
	}
}

func TestRoute_CancelledTransactionYieldsEmptyList(t *testing.T) {
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 1, Name: "T1", Columns: []catalog.ColumnID{1}}},
		[]catalog.Column{{ID: 1, Table: 1, Name: "a"}},
		[]catalog.ColumnPlacement{{Column: 1, Store: 100}},
		[]catalog.Partition{{ID: 1, Table: 1}},
		[]catalog.PartitionPlacement{{Partition: 1, Store: 100, Role: catalog.RolePrimary}},
	)
	arena := algebra.NewLogicalArena()
	scan := arena.Add(algebra.LogicalNode{Kind: algebra.KindScan, Table: 1, ScanID: 0})

	qi := queryinfo.New(map[catalog.TableID]map[catalog.ColumnID]struct{}{1: colSet(1)}, nil)
	tx := txn.NewBasic(false, txn.FreshnessBound{})
	tx.Cancel()

	r := New(newDeps(snap))
	builders, err := r.Route(context.Background(), arena, scan, tx, qi)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if len(builders) != 0 {
		t.Fatalf("expected an empty list for a cancelled transaction, got %d", len(builders))
	}
}
