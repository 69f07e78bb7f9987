// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package queryinfo

import (
	"testing"

	"github.com/Slayzur02/Polypheny-DB/catalog"
)

func TestPartitionsAccessed_MissingMeansAll(t *testing.T) {
	info := New(nil, nil)
	_, ok := info.PartitionsAccessed(1)
	if ok {
		t.Fatal("expected no entry for unknown scan node")
	}
}

func TestPartitionsAccessed_ExplicitEmptySet(t *testing.T) {
	info := New(nil, map[ScanNodeID]map[catalog.PartitionID]struct{}{
		5: {},
	})
	set, ok := info.PartitionsAccessed(5)
	if !ok {
		t.Fatal("expected explicit entry for scan node 5")
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %v", set)
	}
}

func TestColumnsUsed(t *testing.T) {
	info := New(map[catalog.TableID]map[catalog.ColumnID]struct{}{
		1: {10: {}, 11: {}},
	}, nil)
	used := info.ColumnsUsed(1)
	if len(used) != 2 {
		t.Fatalf("expected 2 columns used, got %d", len(used))
	}
	if _, ok := used[10]; !ok {
		t.Fatal("expected column 10 to be used")
	}
}
