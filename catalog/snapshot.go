// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package catalog

// Snapshot is a read-only view of the catalog for the lifetime of one
// query. Implementations must be safe for concurrent use by multiple
// routers, since the catalog is shared, read-only state (spec.md §5).
type Snapshot interface {
	Table(id TableID) (Table, error)
	Column(id ColumnID) (Column, error)
	PlacementsOf(table TableID) ([]ColumnPlacement, error)
	PartitionsOf(table TableID) ([]Partition, error)
	PartitionPlacements(partition PartitionID) ([]PartitionPlacement, error)
	SupportsOutdated(table TableID) bool
}

// StaticSnapshot is an immutable, in-memory catalog snapshot built once
// from fixture data. It never mutates after construction, matching
// spec.md's "no mutation API is used by the core".
type StaticSnapshot struct {
	tables              map[TableID]Table
	columns             map[ColumnID]Column
	placementsByTable    map[TableID][]ColumnPlacement
	partitionsByTable    map[TableID][]Partition
	placementsByPartition map[PartitionID][]PartitionPlacement
}

// NewStaticSnapshot builds a StaticSnapshot from fully decoded catalog
// entities. It does not validate cross-entity invariants beyond what
// PartitionPlacements/PlacementsOf need to answer queries; callers
// assembling fixtures are responsible for catalog consistency, matching
// spec.md §7's "the catalog is assumed consistent; routing stops"
// otherwise.
func NewStaticSnapshot(tables []Table, columns []Column, colPlacements []ColumnPlacement, partitions []Partition, partPlacements []PartitionPlacement) *StaticSnapshot {
	s := &StaticSnapshot{
		tables:                make(map[TableID]Table, len(tables)),
		columns:               make(map[ColumnID]Column, len(columns)),
		placementsByTable:     make(map[TableID][]ColumnPlacement),
		partitionsByTable:     make(map[TableID][]Partition),
		placementsByPartition: make(map[PartitionID][]PartitionPlacement),
	}
	for _, t := range tables {
		s.tables[t.ID] = t
	}
	for _, c := range columns {
		s.columns[c.ID] = c
	}
	for _, p := range partitions {
		s.partitionsByTable[p.Table] = append(s.partitionsByTable[p.Table], p)
	}
	for _, cp := range colPlacements {
		col, ok := s.columns[cp.Column]
		if !ok {
			continue
		}
		s.placementsByTable[col.Table] = append(s.placementsByTable[col.Table], cp)
	}
	for _, pp := range partPlacements {
		s.placementsByPartition[pp.Partition] = append(s.placementsByPartition[pp.Partition], pp)
	}
	return s
}

func (s *StaticSnapshot) Table(id TableID) (Table, error) {
	t, ok := s.tables[id]
	if !ok {
		return Table{}, notFoundErrorf("table %d not found", id)
	}
	return t, nil
}

func (s *StaticSnapshot) Column(id ColumnID) (Column, error) {
	c, ok := s.columns[id]
	if !ok {
		return Column{}, notFoundErrorf("column %d not found", id)
	}
	return c, nil
}

func (s *StaticSnapshot) PlacementsOf(table TableID) ([]ColumnPlacement, error) {
	if _, ok := s.tables[table]; !ok {
		return nil, notFoundErrorf("table %d not found", table)
	}
	return s.placementsByTable[table], nil
}

func (s *StaticSnapshot) PartitionsOf(table TableID) ([]Partition, error) {
	if _, ok := s.tables[table]; !ok {
		return nil, notFoundErrorf("table %d not found", table)
	}
	return s.partitionsByTable[table], nil
}

func (s *StaticSnapshot) PartitionPlacements(partition PartitionID) ([]PartitionPlacement, error) {
	return s.placementsByPartition[partition], nil
}

func (s *StaticSnapshot) SupportsOutdated(table TableID) bool {
	t, ok := s.tables[table]
	return ok && t.SupportsOutdated
}

// Primary returns the PRIMARY placement for a partition, against any
// Snapshot implementation. spec.md §3 invariant 4: "every partition has
// exactly one PRIMARY placement" — a missing or duplicated PRIMARY is a
// fatal catalog-consistency error. The non-freshness routing path (C6)
// uses this to pick the placement for a partition whose scan never reads
// REFRESHABLE or OUTDATED copies.
func Primary(snap Snapshot, partition PartitionID) (PartitionPlacement, error) {
	pps, err := snap.PartitionPlacements(partition)
	if err != nil {
		return PartitionPlacement{}, err
	}
	var found *PartitionPlacement
	for i, pp := range pps {
		if pp.Role == RolePrimary {
			if found != nil {
				return PartitionPlacement{}, invariantErrorf("partition %d has more than one PRIMARY placement", partition)
			}
			found = &pps[i]
		}
	}
	if found == nil {
		return PartitionPlacement{}, invariantErrorf("partition %d has no PRIMARY placement", partition)
	}
	return *found, nil
}
