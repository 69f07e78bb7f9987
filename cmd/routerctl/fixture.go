// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package routerctl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Slayzur02/Polypheny-DB/algebra"
	"github.com/Slayzur02/Polypheny-DB/catalog"
	"github.com/Slayzur02/Polypheny-DB/queryinfo"
	"github.com/Slayzur02/Polypheny-DB/txn"
)

// Fixture is the YAML shape routerctl loads: a catalog snapshot, the
// query-information object, the transaction policy, and the logical
// algebra tree to route, per SPEC_FULL.md §1's CLI harness.
type Fixture struct {
	Tables             []fixtureTable             `yaml:"tables"`
	Columns            []fixtureColumn            `yaml:"columns"`
	ColumnPlacements   []fixtureColumnPlacement    `yaml:"column_placements"`
	Partitions         []fixturePartition          `yaml:"partitions"`
	PartitionPlacements []fixturePartitionPlacement `yaml:"partition_placements"`

	Transaction fixtureTransaction `yaml:"transaction"`
	QueryInfo   fixtureQueryInfo   `yaml:"query_info"`
	Logical     []fixtureLogicalNode `yaml:"logical"`
	Root        int                `yaml:"root"`

	HorizontalStrategy string `yaml:"horizontal_strategy"`
}

type fixtureTable struct {
	ID               uint64 `yaml:"id"`
	Name             string `yaml:"name"`
	Partitioning     string `yaml:"partitioning"`
	SupportsOutdated bool   `yaml:"supports_outdated"`
}

type fixtureColumn struct {
	ID    uint64 `yaml:"id"`
	Table uint64 `yaml:"table"`
	Name  string `yaml:"name"`
}

type fixtureColumnPlacement struct {
	Column uint64 `yaml:"column"`
	Store  uint64 `yaml:"store"`
}

type fixturePartition struct {
	ID    uint64 `yaml:"id"`
	Table uint64 `yaml:"table"`
}

type fixturePartitionPlacement struct {
	Partition uint64 `yaml:"partition"`
	Store     uint64 `yaml:"store"`
	Role      string `yaml:"role"`
	Staleness int64  `yaml:"staleness"`
}

type fixtureTransaction struct {
	AcceptsOutdated bool  `yaml:"accepts_outdated"`
	MaxStaleness    int64 `yaml:"max_staleness"`
}

type fixtureQueryInfo struct {
	ColumnsUsed        map[uint64][]uint64   `yaml:"columns_used"`
	PartitionsAccessed map[uint64][]uint64   `yaml:"partitions_accessed"`
}

type fixtureLogicalNode struct {
	Kind        string `yaml:"kind"`
	Table       uint64 `yaml:"table"`
	ScanID      uint64 `yaml:"scan_id"`
	SetOp       string `yaml:"set_op"`
	OpaqueLabel string `yaml:"opaque_label"`
	Children    []int  `yaml:"children"`
}

// LoadFixture reads and parses a Fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("routerctl: reading fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("routerctl: parsing fixture: %w", err)
	}
	return &f, nil
}

func parsePartitioningKind(s string) (catalog.PartitioningKind, error) {
	switch s {
	case "", "none":
		return catalog.KindNone, nil
	case "horizontal-range":
		return catalog.KindHorizontalRange, nil
	case "horizontal-hash":
		return catalog.KindHorizontalHash, nil
	case "vertical":
		return catalog.KindVertical, nil
	case "replicated":
		return catalog.KindReplicated, nil
	case "mixed":
		return catalog.KindMixed, nil
	default:
		return 0, fmt.Errorf("routerctl: unknown partitioning kind %q", s)
	}
}

func parseRole(s string) (catalog.PlacementRole, error) {
	switch s {
	case "", "PRIMARY":
		return catalog.RolePrimary, nil
	case "REFRESHABLE":
		return catalog.RoleRefreshable, nil
	case "OUTDATED":
		return catalog.RoleOutdated, nil
	default:
		return 0, fmt.Errorf("routerctl: unknown placement role %q", s)
	}
}

// Snapshot builds a catalog.StaticSnapshot from the fixture.
func (f *Fixture) Snapshot() (*catalog.StaticSnapshot, error) {
	tables := make([]catalog.Table, 0, len(f.Tables))
	for _, t := range f.Tables {
		kind, err := parsePartitioningKind(t.Partitioning)
		if err != nil {
			return nil, err
		}
		tables = append(tables, catalog.Table{
			ID:               catalog.TableID(t.ID),
			Name:             t.Name,
			Partitioning:     kind,
			SupportsOutdated: t.SupportsOutdated,
		})
	}

	columns := make([]catalog.Column, 0, len(f.Columns))
	for _, c := range f.Columns {
		columns = append(columns, catalog.Column{ID: catalog.ColumnID(c.ID), Table: catalog.TableID(c.Table), Name: c.Name})
	}

	colPlacements := make([]catalog.ColumnPlacement, 0, len(f.ColumnPlacements))
	for _, cp := range f.ColumnPlacements {
		colPlacements = append(colPlacements, catalog.ColumnPlacement{Column: catalog.ColumnID(cp.Column), Store: catalog.StoreID(cp.Store)})
	}

	partitions := make([]catalog.Partition, 0, len(f.Partitions))
	for _, p := range f.Partitions {
		partitions = append(partitions, catalog.Partition{ID: catalog.PartitionID(p.ID), Table: catalog.TableID(p.Table)})
	}

	partPlacements := make([]catalog.PartitionPlacement, 0, len(f.PartitionPlacements))
	for _, pp := range f.PartitionPlacements {
		role, err := parseRole(pp.Role)
		if err != nil {
			return nil, err
		}
		partPlacements = append(partPlacements, catalog.PartitionPlacement{
			Partition: catalog.PartitionID(pp.Partition),
			Store:     catalog.StoreID(pp.Store),
			Role:      role,
			Staleness: pp.Staleness,
		})
	}

	return catalog.NewStaticSnapshot(tables, columns, colPlacements, partitions, partPlacements), nil
}

// QueryInformation builds a queryinfo.Info from the fixture.
func (f *Fixture) QueryInformation() *queryinfo.Info {
	columnsUsed := make(map[catalog.TableID]map[catalog.ColumnID]struct{}, len(f.QueryInfo.ColumnsUsed))
	for table, cols := range f.QueryInfo.ColumnsUsed {
		set := make(map[catalog.ColumnID]struct{}, len(cols))
		for _, c := range cols {
			set[catalog.ColumnID(c)] = struct{}{}
		}
		columnsUsed[catalog.TableID(table)] = set
	}

	partitionsAccessed := make(map[queryinfo.ScanNodeID]map[catalog.PartitionID]struct{}, len(f.QueryInfo.PartitionsAccessed))
	for scan, parts := range f.QueryInfo.PartitionsAccessed {
		set := make(map[catalog.PartitionID]struct{}, len(parts))
		for _, p := range parts {
			set[catalog.PartitionID(p)] = struct{}{}
		}
		partitionsAccessed[queryinfo.ScanNodeID(scan)] = set
	}

	return queryinfo.New(columnsUsed, partitionsAccessed)
}

// TransactionContext builds a txn.Basic from the fixture's transaction policy.
func (f *Fixture) TransactionContext() *txn.Basic {
	return txn.NewBasic(f.Transaction.AcceptsOutdated, txn.FreshnessBound{MaxStaleness: f.Transaction.MaxStaleness})
}

// LogicalTree builds an algebra.LogicalArena plus the root node ID from
// the fixture's node list, which must be in dependency order (a node may
// only reference earlier indices as children).
func (f *Fixture) LogicalTree() (*algebra.LogicalArena, algebra.NodeID, error) {
	arena := algebra.NewLogicalArena()
	for i, n := range f.Logical {
		node, err := n.toLogicalNode()
		if err != nil {
			return nil, 0, fmt.Errorf("routerctl: logical node %d: %w", i, err)
		}
		if id := arena.Add(node); int(id) != i {
			return nil, 0, fmt.Errorf("routerctl: internal arena index mismatch at node %d", i)
		}
	}
	if f.Root < 0 || f.Root >= len(f.Logical) {
		return nil, 0, fmt.Errorf("routerctl: root index %d out of range", f.Root)
	}
	return arena, algebra.NodeID(f.Root), nil
}

func (n fixtureLogicalNode) toLogicalNode() (algebra.LogicalNode, error) {
	children := make([]algebra.NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, algebra.NodeID(c))
	}

	switch n.Kind {
	case "scan":
		return algebra.LogicalNode{Kind: algebra.KindScan, Table: catalog.TableID(n.Table), ScanID: queryinfo.ScanNodeID(n.ScanID), Children: children}, nil
	case "values":
		return algebra.LogicalNode{Kind: algebra.KindValues, Children: children}, nil
	case "setop":
		op, err := parseSetOp(n.SetOp)
		if err != nil {
			return algebra.LogicalNode{}, err
		}
		if len(children) != 2 {
			return algebra.LogicalNode{}, fmt.Errorf("setop node requires exactly 2 children, got %d", len(children))
		}
		return algebra.LogicalNode{Kind: algebra.KindSetOp, SetOp: op, Children: children}, nil
	case "opaque", "":
		return algebra.LogicalNode{Kind: algebra.KindOpaque, OpaqueLabel: n.OpaqueLabel, Children: children}, nil
	default:
		return algebra.LogicalNode{}, fmt.Errorf("unknown logical node kind %q", n.Kind)
	}
}

func parseSetOp(s string) (algebra.SetOpKind, error) {
	switch s {
	case "UNION":
		return algebra.Union, nil
	case "INTERSECT":
		return algebra.Intersect, nil
	case "EXCEPT":
		return algebra.Except, nil
	default:
		return 0, fmt.Errorf("unknown set-op kind %q", s)
	}
}
