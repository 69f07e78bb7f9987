// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package scancache implements the joined-scan cache (C3): a memoized
// builder that turns a (table, distribution) selection into a physical
// scan subtree, per spec.md §4.3. It is process-wide and concurrent
// (spec.md §5): distinct fingerprints build in parallel, concurrent
// callers for the same fingerprint collapse onto a single in-flight
// build, and invalidate_all drops everything atomically while letting
// in-flight builds finish uninserted (spec.md DESIGN NOTES §9).
package scancache

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Slayzur02/Polypheny-DB/algebra"
	"github.com/Slayzur02/Polypheny-DB/catalog"
)

// Distribution maps each partition the scan must cover to the ordered
// list of column placements read for that partition. Order within a
// partition's placement list is fingerprint-significant (spec.md §6);
// the set of partitions is not ordered by the caller — BuildScan always
// canonicalizes to ascending partition ID before fingerprinting and
// before building the union, per spec.md §4.3's "unions ... in
// partition-ID order".
type Distribution map[catalog.PartitionID][]algebra.PlacementScan

// Fingerprint computes the stable fingerprint of a (table, distribution)
// pair. Two distributions with the same partition→placement-list mapping
// (list order sensitive) produce the same fingerprint; distinct mappings
// do not, satisfying spec.md §6's cache boundary contract.
func Fingerprint(table catalog.TableID, d Distribution) string {
	h := fnv.New128a()
	fmt.Fprintf(h, "t%d|", table)
	for _, pid := range sortedPartitions(d) {
		fmt.Fprintf(h, "p%d[", pid)
		for _, s := range d[pid] {
			fmt.Fprintf(h, "(s%d,r%d,c%v)", s.Store, s.Role, s.Columns)
		}
		h.Write([]byte("]"))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

func sortedPartitions(d Distribution) []catalog.PartitionID {
	ids := make([]catalog.PartitionID, 0, len(d))
	for pid := range d {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Result is the standalone, read-only physical subtree a build produces.
// Callers splice it into their own plan builder's arena via
// algebra.GraftInto rather than mutating it directly, since it may be
// shared by many concurrent callers and cached across queries.
type Result struct {
	Arena *algebra.PhysicalArena
	Root  algebra.PhysicalNodeID
}

// Observer receives cache hit/miss notifications. *rmetrics.Provider
// satisfies this implicitly (ObserveCacheHit/ObserveCacheMiss), without
// scancache needing to import rmetrics.
type Observer interface {
	ObserveCacheHit()
	ObserveCacheMiss()
}

// Cache is the joined-scan cache. The zero value is not usable; use New.
type Cache struct {
	gen      atomic.Uint64
	lru      *lru.Cache[string, cacheEntry]
	group    singleflight.Group
	observer Observer
}

// SetObserver attaches o to receive hit/miss notifications from every
// subsequent BuildScan call. Passing nil disables observation.
func (c *Cache) SetObserver(o Observer) {
	c.observer = o
}

type cacheEntry struct {
	result Result
	gen    uint64
}

// New returns a Cache bounded to at most capacity distinct fingerprints,
// evicted LRU (spec.md §1: "a bounded cache for joined physical scans").
func New(capacity int) *Cache {
	l, err := lru.New[string, cacheEntry](capacity)
	if err != nil {
		// Only returns an error for capacity <= 0; a programmer error.
		panic(fmt.Sprintf("scancache: invalid capacity %d: %v", capacity, err))
	}
	return &Cache{lru: l}
}

// BuildScan returns the physical subtree for (table, distribution),
// memoized by Fingerprint(table, distribution). Concurrent callers for
// the same fingerprint block on the in-flight build and share its
// result (spec.md §4.3's "at-most-one concurrent build" guarantee, via
// singleflight.Group).
func (c *Cache) BuildScan(_ context.Context, table catalog.TableID, d Distribution) (Result, error) {
	key := Fingerprint(table, d)

	if entry, ok := c.lru.Get(key); ok {
		if c.observer != nil {
			c.observer.ObserveCacheHit()
		}
		return entry.result, nil
	}
	if c.observer != nil {
		c.observer.ObserveCacheMiss()
	}

	genAtStart := c.gen.Load()
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		arena := algebra.NewPhysicalArena()
		partitions := sortedPartitions(d)
		scans := make([]algebra.PartitionScans, 0, len(partitions))
		for _, pid := range partitions {
			scans = append(scans, algebra.PartitionScans{Partition: pid, Scans: d[pid]})
		}
		root := algebra.BuildJoinedScan(arena, table, scans)
		return Result{Arena: arena, Root: root}, nil
	})
	if err != nil {
		return Result{}, err
	}
	result := v.(Result)

	// Only insert if no invalidation happened while this build was in
	// flight, per spec.md DESIGN NOTES §9: "invalidate_all waits for
	// in-flight builds to complete, drops their results, and prevents
	// their insertion." singleflight already ensures the build itself
	// ran at most once for concurrent callers sharing genAtStart; a call
	// that arrives after invalidation simply gets a fresh genAtStart and
	// inserts normally once its own build completes.
	if c.gen.Load() == genAtStart {
		c.lru.Add(key, cacheEntry{result: result, gen: genAtStart})
	}
	return result, nil
}

// InvalidateAll drops every cached entry and causes any build already in
// flight to be discarded rather than inserted once it completes.
func (c *Cache) InvalidateAll() {
	c.gen.Add(1)
	c.lru.Purge()
}

// Len reports the number of distinct fingerprints currently cached, for
// tests and metrics.
func (c *Cache) Len() int {
	return c.lru.Len()
}
