// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package placement

import (
	"context"
	"fmt"

	"github.com/Slayzur02/Polypheny-DB/catalog"
	"github.com/Slayzur02/Polypheny-DB/plan"
)

// SinglePlacement serves tables that have exactly one way to read every
// needed column: a single store per partition. It is the strategy
// spec.md §4.6 means by "handle_none ... single-placement table;
// trivially emits the only choice", and doubles as the common case for
// horizontally partitioned tables whose partitions each have a single
// placement (spec.md §8 scenario 3).
type SinglePlacement struct{}

func (s *SinglePlacement) Name() string { return NameSinglePlacement }

func (s *SinglePlacement) HandleNone(ctx context.Context, req Request, builders []*plan.Builder) Result {
	return s.HandleVerticalOrReplicated(ctx, req, builders)
}

func (s *SinglePlacement) HandleHorizontal(ctx context.Context, req Request, builders []*plan.Builder) Result {
	return buildHorizontalPlan(ctx, req, builders)
}

func (s *SinglePlacement) HandleVerticalOrReplicated(ctx context.Context, req Request, builders []*plan.Builder) Result {
	return buildVerticalOrReplicatedPlan(ctx, req, builders, func(candidates map[catalog.ColumnID][]catalog.StoreID) (map[catalog.ColumnID]catalog.StoreID, error) {
		assignment := make(map[catalog.ColumnID]catalog.StoreID, len(candidates))
		for col, stores := range candidates {
			if len(stores) != 1 {
				return nil, fmt.Errorf("placement: single-placement strategy requires exactly one store for column %d, found %d", col, len(stores))
			}
			assignment[col] = stores[0]
		}
		return assignment, nil
	})
}
