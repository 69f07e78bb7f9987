// Copyright 2026 The Polypheny Authors. All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package locks implements the lock acquirer used on the non-freshness
// read path (spec.md §4.5): a shared global schema lock, then shared
// locks on every (table, partition) entity the query will read, entities
// acquired in ascending (table_id, partition_id) order to avoid
// deadlocks among routers (spec.md §5). The lock manager itself is an
// external collaborator in the full system; Manager here is a reference
// in-process implementation the router can be pointed at directly, or
// callers can supply their own Acquirer.
package locks

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Slayzur02/Polypheny-DB/catalog"
)

// ErrDeadlock is returned when the lock manager detects a deadlock.
// spec.md §4.5: the driver converts this to a fatal routing failure for
// this plan; the transaction layer decides retry.
var ErrDeadlock = errors.New("locks: deadlock detected")

// Entity identifies one (table, partition) the query will read.
type Entity struct {
	Table     catalog.TableID
	Partition catalog.PartitionID
}

// Less orders entities by ascending (table_id, partition_id), the order
// spec.md §5 requires locks be acquired in.
func (e Entity) Less(o Entity) bool {
	if e.Table != o.Table {
		return e.Table < o.Table
	}
	return e.Partition < o.Partition
}

// Acquirer is the contract the router depends on for C5. Implementations
// may be backed by a real distributed lock manager; Manager below is an
// in-process reference implementation.
type Acquirer interface {
	// AcquireSchemaShared takes the shared global schema lock,
	// serialized against exclusive schema locks held by DDL.
	AcquireSchemaShared(ctx context.Context) (Release, error)
	// AcquireEntitiesShared takes shared locks on every given entity, in
	// ascending (table, partition) order.
	AcquireEntitiesShared(ctx context.Context, entities []Entity) (Release, error)
}

// Release undoes whatever a successful Acquire call took.
type Release func()

// Manager is a reference Acquirer backed by one RWMutex for the global
// schema lock and one RWMutex per entity, generalizing the teacher's
// storage/inmem store's single rmu/wmu pair (storage/inmem/inmem.go) from
// "one global mutex" to "one mutex per routed entity".
type Manager struct {
	schema sync.RWMutex

	mu       sync.Mutex
	entities map[Entity]*sync.RWMutex
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{entities: map[Entity]*sync.RWMutex{}}
}

// AcquireSchemaShared takes the shared global schema lock.
func (m *Manager) AcquireSchemaShared(ctx context.Context) (Release, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	m.schema.RLock()
	return func() { m.schema.RUnlock() }, nil
}

// AcquireEntitiesShared takes shared locks on every entity, in ascending
// (table, partition) order, matching spec.md §5's lock order contract.
// Lock order alone is what this in-process implementation relies on to
// avoid deadlock among concurrent routers; a cross-process lock manager
// would additionally need to detect and report cycles, which this
// reference implementation has no cause to simulate.
func (m *Manager) AcquireEntitiesShared(ctx context.Context, entities []Entity) (Release, error) {
	ordered := append([]Entity(nil), entities...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	acquired := make([]*sync.RWMutex, 0, len(ordered))
	for _, e := range ordered {
		if ctx.Err() != nil {
			releaseAll(acquired)
			return nil, ctx.Err()
		}
		mu := m.entityLock(e)
		mu.RLock()
		acquired = append(acquired, mu)
	}
	return func() { releaseAll(acquired) }, nil
}

func (m *Manager) entityLock(e Entity) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	mu, ok := m.entities[e]
	if !ok {
		mu = &sync.RWMutex{}
		m.entities[e] = mu
	}
	return mu
}

func releaseAll(locked []*sync.RWMutex) {
	for i := len(locked) - 1; i >= 0; i-- {
		locked[i].RUnlock()
	}
}
