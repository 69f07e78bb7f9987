// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package router implements the DQL router driver (C7): the entry point
// that walks a logical algebra tree post-order, dispatching each scan
// through the freshness resolver, lock acquirer, and placement
// strategies, and carrying/forking plan builders through set operations,
// per spec.md §4.7.
package router

import (
	"context"
	"errors"
	"sort"

	"github.com/Slayzur02/Polypheny-DB/algebra"
	"github.com/Slayzur02/Polypheny-DB/catalog"
	"github.com/Slayzur02/Polypheny-DB/freshness"
	"github.com/Slayzur02/Polypheny-DB/internal/rlog"
	"github.com/Slayzur02/Polypheny-DB/internal/rmetrics"
	"github.com/Slayzur02/Polypheny-DB/locks"
	"github.com/Slayzur02/Polypheny-DB/placement"
	"github.com/Slayzur02/Polypheny-DB/plan"
	"github.com/Slayzur02/Polypheny-DB/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/routererr"
	"github.com/Slayzur02/Polypheny-DB/scancache"
	"github.com/Slayzur02/Polypheny-DB/txn"
)

// Deps bundles every collaborator the driver needs, constructor-injected
// rather than reached for as globals (spec.md DESIGN NOTES §9, "model it
// as an explicit dependency injected into the driver").
type Deps struct {
	Snapshot   catalog.Snapshot
	Cache      *scancache.Cache
	Locks      locks.Acquirer
	Strategies *placement.Registry
	Metrics    *rmetrics.Provider
	Log        rlog.Logger

	// HorizontalStrategy names the placement.Strategy used for
	// horizontally partitioned tables; empty selects placement.Dispatch's
	// default.
	HorizontalStrategy string
}

// Router drives one or more Route calls against a fixed set of Deps.
type Router struct {
	deps Deps
}

// New returns a Router over deps. Deps fields with a nil Log or Metrics
// get a no-op default so callers that don't care about observability
// don't have to construct one.
func New(deps Deps) *Router {
	if deps.Log == nil {
		deps.Log = rlog.NewNoOpLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = rmetrics.NewProvider()
	}
	if deps.Cache != nil {
		deps.Cache.SetObserver(deps.Metrics)
	}
	return &Router{deps: deps}
}

// Route walks root post-order and returns the plan builders produced,
// per spec.md §4.7. An empty (nil) slice with a nil error means a
// strategy declined (cooperative abort) or the transaction was
// cancelled. A
// *routererr.Error is returned for RoutingMisuse, Deadlock, or
// CatalogInconsistency.
func (r *Router) Route(ctx context.Context, arena *algebra.LogicalArena, root algebra.NodeID, tx txn.Context, qi *queryinfo.Info) ([]*plan.Builder, error) {
	stop := r.deps.Metrics.ObserveRouteStart()
	defer stop()

	if !isRoutableRoot(arena, root) {
		return nil, routererr.Misusef("root node is a DML/modify or conditional-execute node; the DQL router never accepts one")
	}

	d := &driver{deps: r.deps, arena: arena, txn: tx, qi: qi}
	builders := []*plan.Builder{plan.New()}
	out, err := d.build(ctx, root, builders)
	if err != nil {
		return nil, err
	}
	r.deps.Metrics.ObserveBuildersProduced(len(out))
	return out, nil
}

func isRoutableRoot(arena *algebra.LogicalArena, root algebra.NodeID) bool {
	n := arena.Node(root)
	if n.Kind != algebra.KindOpaque {
		return true
	}
	return n.OpaqueLabel != algebra.OpaqueLabelDML && n.OpaqueLabel != algebra.OpaqueLabelConditionalExecute
}

type driver struct {
	deps  Deps
	arena *algebra.LogicalArena
	txn   txn.Context
	qi    *queryinfo.Info
}

// build implements the post-order traversal of spec.md §4.7. builders is
// the current set of alternatives being carried through the tree; build
// returns the (possibly forked, possibly empty) set after processing
// node.
func (d *driver) build(ctx context.Context, node algebra.NodeID, builders []*plan.Builder) ([]*plan.Builder, error) {
	if d.txn.CancelFlag() {
		return nil, nil
	}
	if len(builders) == 0 {
		return builders, nil
	}

	n := d.arena.Node(node)
	switch n.Kind {
	case algebra.KindSetOp:
		return d.buildSetOp(ctx, node, n, builders)
	case algebra.KindScan:
		return d.buildScan(ctx, node, n, builders)
	case algebra.KindValues:
		return d.buildValues(builders)
	default:
		return d.buildOpaque(ctx, node, n, builders)
	}
}

// buildSetOp processes the left child against the current builders, then
// forks a single fresh builder for the right child, builds it fully, and
// for every surviving left-side builder replaces its top with a new
// SetOp node over (left-top, right-built-top). Only one right-side build
// is used; right-side alternatives are not expanded combinatorially
// (spec.md §4.7).
func (d *driver) buildSetOp(ctx context.Context, node algebra.NodeID, n algebra.LogicalNode, builders []*plan.Builder) ([]*plan.Builder, error) {
	left, err := d.build(ctx, n.Children[0], builders)
	if err != nil || len(left) == 0 {
		return left, err
	}

	// The right side builds once, into its own fresh arena — spec.md
	// §4.7: "exactly one right-side build is used", not expanded
	// combinatorially against every left alternative.
	rightSeed := []*plan.Builder{plan.New()}
	right, err := d.build(ctx, n.Children[1], rightSeed)
	if err != nil {
		return nil, err
	}
	if len(right) == 0 {
		return nil, nil
	}
	rightBuilder := right[0]
	rightTop, ok := rightBuilder.Top()
	if !ok {
		return nil, routererr.Inconsistentf(nil, "set-op right side produced a builder with no root")
	}
	rightRouting := rightBuilder.RoutingEntries()

	out := make([]*plan.Builder, 0, len(left))
	for _, b := range left {
		leftTop, ok := b.Top()
		if !ok {
			return nil, routererr.Inconsistentf(nil, "set-op left side produced a builder with no root")
		}
		// Each left alternative needs its own independent copy of the
		// right subtree, grafted into its own arena, since physical
		// node children are indices local to one arena.
		graftedRightTop := algebra.GraftInto(b.Arena(), rightBuilder.Arena(), rightTop)
		for rnode, placements := range rightRouting {
			b.RecordRouting(rnode, placements...)
		}
		setOpNode := b.Arena().Add(algebra.PhysicalNode{
			Kind:     algebra.KindPhysicalSetOp,
			SetOp:    n.SetOp,
			Children: []algebra.PhysicalNodeID{leftTop, graftedRightTop},
		})
		b.ReplaceTop(setOpNode)
		out = append(out, b)
	}
	return out, nil
}

func (d *driver) buildValues(builders []*plan.Builder) ([]*plan.Builder, error) {
	for _, b := range builders {
		id := b.Arena().Add(algebra.PhysicalNode{Kind: algebra.KindPhysicalValues})
		b.Push(id)
	}
	return builders, nil
}

// buildOpaque duplicates node into every current builder's arena,
// preserving inputs already routed (spec.md §4.7: "any other algebra
// node: duplicate into every current builder").
func (d *driver) buildOpaque(ctx context.Context, node algebra.NodeID, n algebra.LogicalNode, builders []*plan.Builder) ([]*plan.Builder, error) {
	current := builders
	for _, child := range n.Children {
		var err error
		current, err = d.build(ctx, child, current)
		if err != nil || len(current) == 0 {
			return current, err
		}
	}

	for _, b := range current {
		var children []algebra.PhysicalNodeID
		if top, ok := b.Top(); ok && len(n.Children) > 0 {
			children = []algebra.PhysicalNodeID{top}
		}
		id := b.Arena().Add(algebra.PhysicalNode{Kind: algebra.KindPhysicalOpaque, Children: children})
		b.Push(id)
	}
	return current, nil
}

// buildScan handles spec.md §4.7's scan dispatch: freshness path first
// when eligible, falling back to lock-then-strategy-dispatch on
// InsufficientFreshness or ineligibility.
func (d *driver) buildScan(ctx context.Context, node algebra.NodeID, n algebra.LogicalNode, builders []*plan.Builder) ([]*plan.Builder, error) {
	table, err := d.deps.Snapshot.Table(n.Table)
	if err != nil {
		return nil, routererr.Inconsistentf(err, "scan references unknown table %d", n.Table)
	}

	partitions, err := d.scanPartitions(n)
	if err != nil {
		return nil, err
	}
	columns := d.qi.ColumnsUsed(n.Table)

	if d.txn.AcceptsOutdated() && d.deps.Snapshot.SupportsOutdated(n.Table) {
		out, ok, err := d.buildFreshnessPath(ctx, node, n, builders, partitions, columns)
		if err != nil {
			return nil, err
		}
		if ok {
			return out, nil
		}
		// InsufficientFreshness: fall through to the lock path.
	}

	return d.buildLockedPath(ctx, node, n, table, builders, partitions, columns)
}

func (d *driver) scanPartitions(n algebra.LogicalNode) ([]catalog.PartitionID, error) {
	if set, ok := d.qi.PartitionsAccessed(n.ScanID); ok {
		ids := make([]catalog.PartitionID, 0, len(set))
		for pid := range set {
			ids = append(ids, pid)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return ids, nil
	}
	all, err := d.deps.Snapshot.PartitionsOf(n.Table)
	if err != nil {
		return nil, routererr.Inconsistentf(err, "failed listing partitions of table %d", n.Table)
	}
	ids := make([]catalog.PartitionID, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// buildFreshnessPath attempts spec.md §4.7 step 1. ok is false when the
// freshness path yielded ErrInsufficientFreshness, signalling the caller
// to fall back to the lock path; every other error is fatal.
func (d *driver) buildFreshnessPath(ctx context.Context, node algebra.NodeID, n algebra.LogicalNode, builders []*plan.Builder, partitions []catalog.PartitionID, columns map[catalog.ColumnID]struct{}) ([]*plan.Builder, bool, error) {
	bound := d.txn.FreshnessSpec()

	candidates, err := freshness.CandidatePartitionPlacements(d.deps.Snapshot, n.Table, partitions, bound)
	if errors.Is(err, freshness.ErrInsufficientFreshness) {
		d.deps.Metrics.ObserveFreshnessFallback()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, routererr.Inconsistentf(err, "freshness candidate lookup failed for table %d", n.Table)
	}

	dists, err := freshness.CandidateColumnDistributions(candidates, n.Table, columns)
	if errors.Is(err, freshness.ErrInsufficientFreshness) {
		d.deps.Metrics.ObserveFreshnessFallback()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, routererr.Inconsistentf(err, "freshness distribution selection failed for table %d", n.Table)
	}

	sortedCols := sortColumns(columns)
	out := make([]*plan.Builder, 0, len(builders)*len(dists))
	for _, dist := range dists {
		scDist := scancache.Distribution{}
		for pid, pps := range dist {
			scans := make([]algebra.PlacementScan, 0, len(pps))
			for _, pp := range pps {
				scans = append(scans, algebra.PlacementScan{Store: pp.Store, Role: pp.Role, Columns: sortedCols})
			}
			scDist[pid] = scans
		}
		result, err := d.deps.Cache.BuildScan(ctx, n.Table, scDist)
		if err != nil {
			return nil, false, routererr.Internalf(err, "joined-scan build failed for table %d", n.Table)
		}
		for _, b := range builders {
			forked := b.Fork()
			grafted := algebra.GraftInto(forked.Arena(), result.Arena, result.Root)
			forked.Push(grafted)
			for pid, pps := range dist {
				for _, pp := range pps {
					forked.RecordRouting(node, catalog.PartitionPlacement{Partition: pid, Store: pp.Store, Role: pp.Role})
				}
			}
			out = append(out, forked)
		}
	}
	d.txn.SetUseCache(false)
	return out, true, nil
}

// buildLockedPath handles spec.md §4.7 steps 2-3: acquire shared locks on
// every (table, partition) entity the scan reads, then dispatch to the
// table's placement strategy by partitioning kind.
func (d *driver) buildLockedPath(ctx context.Context, node algebra.NodeID, n algebra.LogicalNode, table catalog.Table, builders []*plan.Builder, partitions []catalog.PartitionID, columns map[catalog.ColumnID]struct{}) ([]*plan.Builder, error) {
	entities := make([]locks.Entity, 0, len(partitions))
	for _, pid := range partitions {
		entities = append(entities, locks.Entity{Table: n.Table, Partition: pid})
	}

	if _, err := d.deps.Locks.AcquireSchemaShared(ctx); err != nil {
		return nil, wrapLockErr(err)
	}
	release, err := d.deps.Locks.AcquireEntitiesShared(ctx, entities)
	if err != nil {
		return nil, wrapLockErr(err)
	}
	defer release()

	req := placement.Request{
		Snapshot:   d.deps.Snapshot,
		Cache:      d.deps.Cache,
		Table:      table,
		ScanNode:   node,
		Columns:    columns,
		Partitions: partitions,
	}

	name := placement.Dispatch(table.Partitioning, d.deps.HorizontalStrategy)
	strategy, err := d.deps.Strategies.Get(name)
	if err != nil {
		return nil, routererr.Internalf(err, "no placement strategy registered for table %d", n.Table)
	}
	d.deps.Metrics.ObserveStrategyDispatch(name)

	var res placement.Result
	switch {
	case table.Partitioning.IsHorizontal() || table.Partitioning == catalog.KindMixed:
		res = strategy.HandleHorizontal(ctx, req, builders)
	case hasMultiplePlacements(d.deps.Snapshot, table.ID):
		res = strategy.HandleVerticalOrReplicated(ctx, req, builders)
	default:
		res = strategy.HandleNone(ctx, req, builders)
	}

	switch res.Outcome {
	case placement.Plans:
		return res.Builders, nil
	case placement.Decline:
		return nil, nil
	default:
		return nil, routererr.Inconsistentf(res.Err, "placement strategy %q failed for table %d", name, n.Table)
	}
}

func hasMultiplePlacements(snap catalog.Snapshot, table catalog.TableID) bool {
	placements, err := snap.PlacementsOf(table)
	if err != nil {
		return false
	}
	stores := map[catalog.StoreID]struct{}{}
	for _, p := range placements {
		stores[p.Store] = struct{}{}
	}
	return len(stores) > 1
}

func sortColumns(cols map[catalog.ColumnID]struct{}) []catalog.ColumnID {
	out := make([]catalog.ColumnID, 0, len(cols))
	for c := range cols {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func wrapLockErr(err error) error {
	if errors.Is(err, locks.ErrDeadlock) {
		return routererr.Deadlockf(err, "deadlock acquiring routing locks")
	}
	return routererr.Internalf(err, "lock acquisition failed")
}
