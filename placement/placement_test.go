// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package placement

import (
	"context"
	"testing"

	"github.com/Slayzur02/Polypheny-DB/catalog"
	"github.com/Slayzur02/Polypheny-DB/plan"
	"github.com/Slayzur02/Polypheny-DB/scancache"
)

func oneBuilder() []*plan.Builder {
	return []*plan.Builder{plan.New()}
}

func cols(ids ...catalog.ColumnID) map[catalog.ColumnID]struct{} {
	m := make(map[catalog.ColumnID]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

func TestSinglePlacement_HandleNone(t *testing.T) {
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 1, Name: "T1", Columns: []catalog.ColumnID{1, 2}}},
		[]catalog.Column{{ID: 1, Table: 1, Name: "a"}, {ID: 2, Table: 1, Name: "b"}},
		[]catalog.ColumnPlacement{{Column: 1, Store: 100}, {Column: 2, Store: 100}},
		[]catalog.Partition{{ID: 1, Table: 1}},
		[]catalog.PartitionPlacement{{Partition: 1, Store: 100, Role: catalog.RolePrimary}},
	)
	cache := scancache.New(8)
	req := Request{Snapshot: snap, Cache: cache, Table: catalog.Table{ID: 1}, ScanNode: 0, Columns: cols(1, 2), Partitions: []catalog.PartitionID{1}}

	s := &SinglePlacement{}
	res := s.HandleNone(context.Background(), req, oneBuilder())
	if res.Outcome != Plans {
		t.Fatalf("expected Plans outcome, got %v (err=%v)", res.Outcome, res.Err)
	}
	if _, ok := res.Builders[0].Top(); !ok {
		t.Fatalf("expected builder to have a pushed top")
	}
}

func TestSinglePlacement_DeclinesOnMultiplePlacements(t *testing.T) {
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 1, Name: "T1", Columns: []catalog.ColumnID{1}}},
		[]catalog.Column{{ID: 1, Table: 1, Name: "a"}},
		[]catalog.ColumnPlacement{{Column: 1, Store: 100}, {Column: 1, Store: 200}},
		[]catalog.Partition{{ID: 1, Table: 1}},
		[]catalog.PartitionPlacement{{Partition: 1, Store: 100, Role: catalog.RolePrimary}},
	)
	req := Request{Snapshot: snap, Cache: scancache.New(8), Table: catalog.Table{ID: 1}, Columns: cols(1), Partitions: []catalog.PartitionID{1}}

	s := &SinglePlacement{}
	res := s.HandleNone(context.Background(), req, oneBuilder())
	if res.Outcome != Decline {
		t.Fatalf("expected Decline outcome, got %v", res.Outcome)
	}
}

func TestFullReplication_PicksLeastLoadedReplica(t *testing.T) {
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 1, Name: "T1", Columns: []catalog.ColumnID{1}}},
		[]catalog.Column{{ID: 1, Table: 1, Name: "a"}},
		[]catalog.ColumnPlacement{{Column: 1, Store: 100}, {Column: 1, Store: 200}, {Column: 1, Store: 300}},
		[]catalog.Partition{{ID: 1, Table: 1}},
		[]catalog.PartitionPlacement{{Partition: 1, Store: 100, Role: catalog.RolePrimary}},
	)
	req := Request{Snapshot: snap, Cache: scancache.New(8), Table: catalog.Table{ID: 1}, Columns: cols(1), Partitions: []catalog.PartitionID{1}}

	s := &FullReplication{}
	first := s.HandleVerticalOrReplicated(context.Background(), req, oneBuilder())
	if first.Outcome != Plans {
		t.Fatalf("expected Plans, got %v (err=%v)", first.Outcome, first.Err)
	}
	firstStore := first.Builders[0].Routing(req.ScanNode)[0].Store
	if firstStore != 100 {
		t.Fatalf("expected lowest-store tie-break on first call, got %d", firstStore)
	}

	second := s.HandleVerticalOrReplicated(context.Background(), req, oneBuilder())
	secondStore := second.Builders[0].Routing(req.ScanNode)[0].Store
	if secondStore != 200 {
		t.Fatalf("expected load-spreading to pick next-least-loaded store 200, got %d", secondStore)
	}
}

func TestMinimumCost_GreedySetCoverMinimizesStores(t *testing.T) {
	// column 1 is only on store 100; column 2 is on both 100 and 200.
	// the greedy cover should put both columns on store 100.
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 1, Name: "T1", Columns: []catalog.ColumnID{1, 2}}},
		[]catalog.Column{{ID: 1, Table: 1, Name: "a"}, {ID: 2, Table: 1, Name: "b"}},
		[]catalog.ColumnPlacement{
			{Column: 1, Store: 100},
			{Column: 2, Store: 100},
			{Column: 2, Store: 200},
		},
		[]catalog.Partition{{ID: 1, Table: 1}},
		[]catalog.PartitionPlacement{{Partition: 1, Store: 100, Role: catalog.RolePrimary}},
	)
	req := Request{Snapshot: snap, Cache: scancache.New(8), Table: catalog.Table{ID: 1}, Columns: cols(1, 2), Partitions: []catalog.PartitionID{1}}

	s := &MinimumCost{}
	res := s.HandleVerticalOrReplicated(context.Background(), req, oneBuilder())
	if res.Outcome != Plans {
		t.Fatalf("expected Plans, got %v (err=%v)", res.Outcome, res.Err)
	}
	routing := res.Builders[0].Routing(req.ScanNode)
	stores := map[catalog.StoreID]struct{}{}
	for _, pp := range routing {
		stores[pp.Store] = struct{}{}
	}
	if len(stores) != 1 {
		t.Fatalf("expected a single store to cover both columns, touched %d", len(stores))
	}
}

func TestMinimumCost_HandleHorizontalPrefersSharedStore(t *testing.T) {
	snap := catalog.NewStaticSnapshot(
		[]catalog.Table{{ID: 1, Name: "T1", Columns: []catalog.ColumnID{1}, Partitioning: catalog.KindHorizontalRange}},
		[]catalog.Column{{ID: 1, Table: 1, Name: "a"}},
		nil,
		[]catalog.Partition{{ID: 1, Table: 1}, {ID: 2, Table: 1}},
		[]catalog.PartitionPlacement{
			{Partition: 1, Store: 100, Role: catalog.RolePrimary},
			{Partition: 1, Store: 200, Role: catalog.RoleRefreshable},
			{Partition: 2, Store: 200, Role: catalog.RolePrimary},
			{Partition: 2, Store: 300, Role: catalog.RoleRefreshable},
		},
	)
	req := Request{Snapshot: snap, Cache: scancache.New(8), Table: catalog.Table{ID: 1}, Columns: cols(1), Partitions: []catalog.PartitionID{1, 2}}

	s := &MinimumCost{}
	res := s.HandleHorizontal(context.Background(), req, oneBuilder())
	if res.Outcome != Plans {
		t.Fatalf("expected Plans, got %v (err=%v)", res.Outcome, res.Err)
	}
	routing := res.Builders[0].Routing(req.ScanNode)
	stores := map[catalog.StoreID]struct{}{}
	for _, pp := range routing {
		stores[pp.Store] = struct{}{}
	}
	if len(stores) != 1 || func() bool { _, ok := stores[200]; return !ok }() {
		t.Fatalf("expected both partitions to route through shared store 200, got %v", stores)
	}
}

func TestRegistry_DefaultRegistryResolvesAllNames(t *testing.T) {
	r := DefaultRegistry()
	for _, name := range []string{NameFullReplication, NameSinglePlacement, NameMinimumCost} {
		if _, err := r.Get(name); err != nil {
			t.Fatalf("expected strategy %q registered: %v", name, err)
		}
	}
	if _, err := r.Get("does-not-exist"); err == nil {
		t.Fatalf("expected error for unregistered strategy name")
	}
}

func TestDispatch(t *testing.T) {
	cases := []struct {
		kind     catalog.PartitioningKind
		horiz    string
		expected string
	}{
		{catalog.KindNone, "", NameSinglePlacement},
		{catalog.KindHorizontalRange, "", NameMinimumCost},
		{catalog.KindHorizontalHash, NameFullReplication, NameFullReplication},
		{catalog.KindMixed, "", NameFullReplication},
		{catalog.KindVertical, "", NameMinimumCost},
		{catalog.KindReplicated, "", NameMinimumCost},
	}
	for _, c := range cases {
		if got := Dispatch(c.kind, c.horiz); got != c.expected {
			t.Fatalf("Dispatch(%v, %q) = %q, want %q", c.kind, c.horiz, got, c.expected)
		}
	}
}
