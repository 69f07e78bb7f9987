// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package placement

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Slayzur02/Polypheny-DB/catalog"
	"github.com/Slayzur02/Polypheny-DB/plan"
)

// FullReplication serves tables where every needed column is fully
// replicated across several stores: it picks whichever replica's store
// currently has the least accumulated routing load, a simple
// load-spreading tie-break (spec.md §4.6's "full-replication" strategy).
// Routing load is a monotonically increasing per-store counter
// maintained here, not a live query against the (out-of-scope) lock
// manager — the real lock manager's in-flight state is an external
// collaborator this core only consumes through the locks.Acquirer
// contract, which does not expose per-store occupancy.
type FullReplication struct {
	mu   sync.Mutex
	load map[catalog.StoreID]int
}

func (s *FullReplication) Name() string { return NameFullReplication }

func (s *FullReplication) pick(candidates []catalog.StoreID) catalog.StoreID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.load == nil {
		s.load = map[catalog.StoreID]int{}
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if s.load[c] < s.load[best] || (s.load[c] == s.load[best] && c < best) {
			best = c
		}
	}
	s.load[best]++
	return best
}

func (s *FullReplication) HandleNone(ctx context.Context, req Request, builders []*plan.Builder) Result {
	return s.HandleVerticalOrReplicated(ctx, req, builders)
}

func (s *FullReplication) HandleHorizontal(ctx context.Context, req Request, builders []*plan.Builder) Result {
	return buildHorizontalPlan(ctx, req, builders)
}

func (s *FullReplication) HandleVerticalOrReplicated(ctx context.Context, req Request, builders []*plan.Builder) Result {
	return buildVerticalOrReplicatedPlan(ctx, req, builders, func(candidates map[catalog.ColumnID][]catalog.StoreID) (map[catalog.ColumnID]catalog.StoreID, error) {
		replicas := fullReplicas(candidates)
		if len(replicas) == 0 {
			return nil, fmt.Errorf("placement: no store replicates every needed column")
		}
		chosen := s.pick(replicas)
		assignment := make(map[catalog.ColumnID]catalog.StoreID, len(candidates))
		for col := range candidates {
			assignment[col] = chosen
		}
		return assignment, nil
	})
}

// fullReplicas returns, in ascending StoreID order, every store that
// appears as a candidate for every column in candidates — i.e. a true
// full replica of the needed column set.
func fullReplicas(candidates map[catalog.ColumnID][]catalog.StoreID) []catalog.StoreID {
	counts := map[catalog.StoreID]int{}
	for _, stores := range candidates {
		seen := map[catalog.StoreID]struct{}{}
		for _, s := range stores {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			counts[s]++
		}
	}
	need := len(candidates)
	var out []catalog.StoreID
	for store, n := range counts {
		if n == need {
			out = append(out, store)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
