// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package queryinfo holds the per-query precomputed metadata the router
// consumes: which columns are used per table, and which partitions a
// given scan node accesses. It is built upstream of the router and is
// read-only here.
package queryinfo

import (
	"github.com/Slayzur02/Polypheny-DB/catalog"
)

// ScanNodeID identifies a Scan node within one logical algebra tree.
type ScanNodeID uint64

// Info is a read-only, per-query view over which columns and partitions
// a query touches.
type Info struct {
	columnsUsed        map[catalog.TableID]map[catalog.ColumnID]struct{}
	partitionsAccessed map[ScanNodeID]map[catalog.PartitionID]struct{}
}

// New builds an Info from already-computed maps. A nil or missing entry
// in partitionsAccessed for a scan node means "all partitions of the
// table" per spec.md §4.2; callers that want an explicit empty set must
// pass a non-nil empty map.
func New(columnsUsed map[catalog.TableID]map[catalog.ColumnID]struct{}, partitionsAccessed map[ScanNodeID]map[catalog.PartitionID]struct{}) *Info {
	if columnsUsed == nil {
		columnsUsed = map[catalog.TableID]map[catalog.ColumnID]struct{}{}
	}
	if partitionsAccessed == nil {
		partitionsAccessed = map[ScanNodeID]map[catalog.PartitionID]struct{}{}
	}
	return &Info{columnsUsed: columnsUsed, partitionsAccessed: partitionsAccessed}
}

// ColumnsUsed returns the set of column IDs the query uses from table.
func (i *Info) ColumnsUsed(table catalog.TableID) map[catalog.ColumnID]struct{} {
	return i.columnsUsed[table]
}

// PartitionsAccessed returns the set of partition IDs the given scan
// node accesses, and whether an explicit entry was recorded for it. When
// ok is false the caller must treat the scan as touching every partition
// of its table (spec.md §4.2).
func (i *Info) PartitionsAccessed(scan ScanNodeID) (set map[catalog.PartitionID]struct{}, ok bool) {
	set, ok = i.partitionsAccessed[scan]
	return set, ok
}
