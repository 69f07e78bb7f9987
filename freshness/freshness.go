// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package freshness implements the freshness resolver (C4): if the
// transaction accepts outdated copies and the table supports outdated
// placements, it selects placements whose staleness is within the
// transaction's bound, per spec.md §4.4.
//
// The selector's contract resolves spec.md's noted Open Question: for
// each partition, pick the staleness-minimal placement whose staleness
// is <= the bound, breaking ties by ascending store ID (store
// preference). A partition with no placement inside the bound, or a
// request with no feasible distribution at all, yields
// ErrInsufficientFreshness — never a partial result.
package freshness

import (
	"errors"
	"sort"

	"github.com/Slayzur02/Polypheny-DB/catalog"
	"github.com/Slayzur02/Polypheny-DB/txn"
)

// ErrInsufficientFreshness indicates no placement (or no combination of
// placements) satisfies the transaction's freshness bound for every
// partition required. The router catches this internally and falls back
// to the locking path (spec.md §4.7 step 1); it never escapes the core.
var ErrInsufficientFreshness = errors.New("freshness: insufficient freshness")

// CandidatePartitionPlacements returns, for every partition in
// partitionsNeeded, the list of partition placements (of table) that
// satisfy bound, ordered staleness-minimal first with ties broken by
// ascending store ID. If any required partition has no satisfying
// placement, it returns ErrInsufficientFreshness.
func CandidatePartitionPlacements(snap catalog.Snapshot, table catalog.TableID, partitionsNeeded []catalog.PartitionID, bound txn.FreshnessBound) (map[catalog.PartitionID][]catalog.PartitionPlacement, error) {
	result := make(map[catalog.PartitionID][]catalog.PartitionPlacement, len(partitionsNeeded))
	for _, pid := range partitionsNeeded {
		all, err := snap.PartitionPlacements(pid)
		if err != nil {
			return nil, err
		}
		var satisfying []catalog.PartitionPlacement
		for _, pp := range all {
			if bound.Satisfies(pp.Staleness) {
				satisfying = append(satisfying, pp)
			}
		}
		if len(satisfying) == 0 {
			return nil, ErrInsufficientFreshness
		}
		sort.Slice(satisfying, func(i, j int) bool {
			if satisfying[i].Staleness != satisfying[j].Staleness {
				return satisfying[i].Staleness < satisfying[j].Staleness
			}
			return satisfying[i].Store < satisfying[j].Store
		})
		result[pid] = satisfying
	}
	return result, nil
}

// CandidateColumnDistributions turns the candidate partition placement
// map into one or more column-placement distributions covering
// columnsUsed. This reference implementation produces exactly one
// distribution — the staleness-minimal placement per partition selected
// by CandidatePartitionPlacements — read for all of columnsUsed (every
// placement here is a full-row copy of its partition, so any one
// placement trivially covers every column). Tables whose freshness-
// tolerant placements are column-partial are out of scope for this
// resolver: such a table would need a real column-coverage search, which
// spec.md leaves to the placement strategies on the non-freshness path.
func CandidateColumnDistributions(candidates map[catalog.PartitionID][]catalog.PartitionPlacement, table catalog.TableID, columnsUsed map[catalog.ColumnID]struct{}) ([]map[catalog.PartitionID][]catalog.PartitionPlacement, error) {
	if len(candidates) == 0 {
		return nil, ErrInsufficientFreshness
	}
	distribution := make(map[catalog.PartitionID][]catalog.PartitionPlacement, len(candidates))
	for pid, placements := range candidates {
		if len(placements) == 0 {
			return nil, ErrInsufficientFreshness
		}
		distribution[pid] = []catalog.PartitionPlacement{placements[0]}
	}
	return []map[catalog.PartitionID][]catalog.PartitionPlacement{distribution}, nil
}
