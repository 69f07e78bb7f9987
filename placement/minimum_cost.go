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

// MinimumCost serves vertically split or multiply-placed tables by
// minimizing the number of distinct stores a scan must fan out to
// (spec.md §4.6's "minimum-cost" strategy): a greedy set cover over the
// needed columns' candidate stores. On the horizontal path it instead
// minimizes store fan-out across the partitions' union by preferring,
// for each partition, a store already chosen for a sibling partition.
type MinimumCost struct{}

func (s *MinimumCost) Name() string { return NameMinimumCost }

func (s *MinimumCost) HandleNone(ctx context.Context, req Request, builders []*plan.Builder) Result {
	return s.HandleVerticalOrReplicated(ctx, req, builders)
}

// HandleHorizontal covers req.Partitions one at a time, ascending, each
// time preferring any non-OUTDATED placement whose store already appears
// in stores chosen for an earlier partition, falling back to the
// partition's PRIMARY placement otherwise. This is a single greedy pass:
// the first partition always takes its PRIMARY placement, and a store
// chosen only for a later partition is never reconsidered for an earlier
// one, so the union's distinct-store count is not guaranteed minimal.
func (s *MinimumCost) HandleHorizontal(ctx context.Context, req Request, builders []*plan.Builder) Result {
	cols := columnsOf(req)
	dist := scancache.Distribution{}
	chosen := map[catalog.StoreID]struct{}{}

	for _, pid := range req.Partitions {
		pps, err := req.Snapshot.PartitionPlacements(pid)
		if err != nil {
			return ErrorResult(err)
		}
		sort.Slice(pps, func(i, j int) bool { return pps[i].Store < pps[j].Store })

		pick := catalog.PartitionPlacement{}
		found := false
		for _, pp := range pps {
			if pp.Role == catalog.RoleOutdated {
				continue
			}
			if _, ok := chosen[pp.Store]; ok {
				pick, found = pp, true
				break
			}
		}
		if !found {
			for _, pp := range pps {
				if pp.Role == catalog.RolePrimary {
					pick, found = pp, true
					break
				}
			}
		}
		if !found {
			return ErrorResult(fmt.Errorf("placement: partition %d has no usable placement", pid))
		}

		chosen[pick.Store] = struct{}{}
		dist[pid] = []algebra.PlacementScan{{Store: pick.Store, Role: pick.Role, Columns: cols}}
	}
	return spliceDistribution(ctx, req, builders, dist)
}

// HandleVerticalOrReplicated greedily assigns columns to stores,
// repeatedly picking the candidate store that covers the most
// still-unassigned columns (a standard greedy set-cover approximation),
// breaking ties by ascending store ID for determinism.
func (s *MinimumCost) HandleVerticalOrReplicated(ctx context.Context, req Request, builders []*plan.Builder) Result {
	return buildVerticalOrReplicatedPlan(ctx, req, builders, greedySetCover)
}

func greedySetCover(candidates map[catalog.ColumnID][]catalog.StoreID) (map[catalog.ColumnID]catalog.StoreID, error) {
	remaining := make(map[catalog.ColumnID]struct{}, len(candidates))
	for col := range candidates {
		remaining[col] = struct{}{}
	}

	assignment := make(map[catalog.ColumnID]catalog.StoreID, len(candidates))
	for len(remaining) > 0 {
		covers := map[catalog.StoreID][]catalog.ColumnID{}
		for col := range remaining {
			for _, store := range candidates[col] {
				covers[store] = append(covers[store], col)
			}
		}
		if len(covers) == 0 {
			return nil, fmt.Errorf("placement: no store available to cover remaining columns")
		}

		stores := make([]catalog.StoreID, 0, len(covers))
		for s := range covers {
			stores = append(stores, s)
		}
		sort.Slice(stores, func(i, j int) bool {
			if len(covers[stores[i]]) != len(covers[stores[j]]) {
				return len(covers[stores[i]]) > len(covers[stores[j]])
			}
			return stores[i] < stores[j]
		})

		best := stores[0]
		for _, col := range covers[best] {
			assignment[col] = best
			delete(remaining, col)
		}
	}
	return assignment, nil
}
