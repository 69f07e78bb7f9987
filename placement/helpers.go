// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package placement

import (
	"context"
	"fmt"
	"sort"

	"github.com/Slayzur02/Polypheny-DB/algebra"
	"github.com/Slayzur02/Polypheny-DB/catalog"
	"github.com/Slayzur02/Polypheny-DB/plan"
	"github.com/Slayzur02/Polypheny-DB/scancache"
)

// primaryPlacement returns partition pid's PRIMARY partition placement.
// buildHorizontalPlan (the horizontal handler of full-replication and
// single-placement) reads only PRIMARY copies and starts here;
// MinimumCost.HandleHorizontal may instead reuse a REFRESHABLE copy on
// an already-chosen store. Delegates to catalog.Primary, which also
// rejects a partition with more than one PRIMARY as a
// catalog-consistency error.
func primaryPlacement(snap catalog.Snapshot, pid catalog.PartitionID) (catalog.PartitionPlacement, error) {
	return catalog.Primary(snap, pid)
}

// columnsOf returns req.Columns as a sorted slice, for deterministic
// iteration.
func columnsOf(req Request) []catalog.ColumnID {
	cols := make([]catalog.ColumnID, 0, len(req.Columns))
	for c := range req.Columns {
		cols = append(cols, c)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i] < cols[j] })
	return cols
}

// storesForColumn maps each needed column to the ascending-sorted list
// of stores that hold a placement of it, from req.Snapshot.PlacementsOf.
func storesForColumn(req Request) (map[catalog.ColumnID][]catalog.StoreID, error) {
	placements, err := req.Snapshot.PlacementsOf(req.Table.ID)
	if err != nil {
		return nil, err
	}
	byColumn := map[catalog.ColumnID][]catalog.StoreID{}
	for _, cp := range placements {
		byColumn[cp.Column] = append(byColumn[cp.Column], cp.Store)
	}
	for col := range byColumn {
		sort.Slice(byColumn[col], func(i, j int) bool { return byColumn[col][i] < byColumn[col][j] })
	}
	for _, col := range columnsOf(req) {
		if len(byColumn[col]) == 0 {
			return nil, fmt.Errorf("placement: column %d of table %d has no placement", col, req.Table.ID)
		}
	}
	return byColumn, nil
}

// buildHorizontalPlan covers every partition in req.Partitions by
// reading each partition's PRIMARY placement, builds the joined/unioned
// scan via the cache, and splices the result into every builder (no
// forking: there is a single PRIMARY choice per partition, so exactly
// one distribution results).
func buildHorizontalPlan(ctx context.Context, req Request, builders []*plan.Builder) Result {
	cols := columnsOf(req)
	dist := scancache.Distribution{}
	for _, pid := range req.Partitions {
		primary, err := primaryPlacement(req.Snapshot, pid)
		if err != nil {
			return ErrorResult(err)
		}
		dist[pid] = []algebra.PlacementScan{{Store: primary.Store, Role: primary.Role, Columns: cols}}
	}
	return spliceDistribution(ctx, req, builders, dist)
}

// buildVerticalOrReplicatedPlan covers one (or more) partitions' needed
// columns via a column→store assignment chosen by assignColumns, and
// splices the resulting scan the same way as buildHorizontalPlan.
// assignColumns receives the candidate stores per column and returns the
// chosen store per column; an error return declines the strategy.
func buildVerticalOrReplicatedPlan(ctx context.Context, req Request, builders []*plan.Builder, assignColumns func(candidates map[catalog.ColumnID][]catalog.StoreID) (map[catalog.ColumnID]catalog.StoreID, error)) Result {
	candidates, err := storesForColumn(req)
	if err != nil {
		return ErrorResult(err)
	}
	assignment, err := assignColumns(candidates)
	if err != nil {
		return DeclineResult()
	}

	partitions := req.Partitions
	if len(partitions) == 0 {
		ps, err := req.Snapshot.PartitionsOf(req.Table.ID)
		if err != nil {
			return ErrorResult(err)
		}
		for _, p := range ps {
			partitions = append(partitions, p.ID)
		}
	}

	byStore := map[catalog.StoreID][]catalog.ColumnID{}
	for _, col := range columnsOf(req) {
		store := assignment[col]
		byStore[store] = append(byStore[store], col)
	}
	stores := make([]catalog.StoreID, 0, len(byStore))
	for s := range byStore {
		stores = append(stores, s)
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i] < stores[j] })

	dist := scancache.Distribution{}
	for _, pid := range partitions {
		role, err := roleForPartition(req.Snapshot, pid, stores)
		if err != nil {
			return ErrorResult(err)
		}
		scans := make([]algebra.PlacementScan, 0, len(stores))
		for i, store := range stores {
			scans = append(scans, algebra.PlacementScan{Store: store, Role: role[i], Columns: byStore[store]})
		}
		dist[pid] = scans
	}
	return spliceDistribution(ctx, req, builders, dist)
}

// roleForPartition returns, for each store in stores, the role that
// store's placement of pid has — falling back to PRIMARY when the
// catalog records no explicit partition placement for that store (a
// vertically split table may only record PRIMARY/whole-partition roles
// for freshness bookkeeping, not per-column-placement roles).
func roleForPartition(snap catalog.Snapshot, pid catalog.PartitionID, stores []catalog.StoreID) ([]catalog.PlacementRole, error) {
	pps, err := snap.PartitionPlacements(pid)
	if err != nil {
		return nil, err
	}
	byStore := map[catalog.StoreID]catalog.PlacementRole{}
	for _, pp := range pps {
		byStore[pp.Store] = pp.Role
	}
	roles := make([]catalog.PlacementRole, len(stores))
	for i, s := range stores {
		if r, ok := byStore[s]; ok {
			roles[i] = r
		} else {
			roles[i] = catalog.RolePrimary
		}
	}
	return roles, nil
}

// spliceDistribution builds dist via the cache and pushes the resulting
// subtree into every builder (forking is not needed here since the
// non-freshness path always produces exactly one distribution; set
// operations and multi-distribution freshness paths fork at their own
// call sites).
func spliceDistribution(ctx context.Context, req Request, builders []*plan.Builder, dist scancache.Distribution) Result {
	result, err := req.Cache.BuildScan(ctx, req.Table.ID, dist)
	if err != nil {
		return ErrorResult(err)
	}

	out := make([]*plan.Builder, 0, len(builders))
	for _, b := range builders {
		grafted := algebra.GraftInto(b.Arena(), result.Arena, result.Root)
		b.Push(grafted)
		for pid, scans := range dist {
			for _, s := range scans {
				b.RecordRouting(req.ScanNode, catalog.PartitionPlacement{Partition: pid, Store: s.Store, Role: s.Role})
			}
		}
		out = append(out, b)
	}
	return PlansResult(out)
}
