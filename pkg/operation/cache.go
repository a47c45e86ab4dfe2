// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-authbridge.
//
// go-authbridge is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package operation

import "sync"

// Cache is the keyed registry of in-flight operations. One registry serves
// all operation kinds because events arrive on a single channel keyed only by
// identifier. Entries are added at operation start and removed the moment the
// flow reaches a terminal state.
//
// The cache is constructor-created so tests can inject a fresh instance; the
// client facade owns one for the process lifetime.
type Cache struct {
	mu  sync.RWMutex
	ops map[string]Operation
}

// NewCache creates an empty operation cache.
func NewCache() *Cache {
	return &Cache{ops: make(map[string]Operation)}
}

// Put inserts the operation keyed by its identifier. An insert for an
// already-present identifier replaces the existing entry (last write wins).
// Starting the event listener on the first entry is the caller's job.
func (c *Cache) Put(op Operation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops[op.ID()] = op
}

// Get returns the operation for the identifier. Absence is a normal outcome:
// events for unknown or already-completed operations are dropped by the
// dispatcher.
func (c *Cache) Get(id string) (Operation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	op, ok := c.ops[id]
	return op, ok
}

// Delete removes the entry if present; no-op otherwise.
func (c *Cache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.ops, id)
}

// Len returns the number of in-flight operations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ops)
}

// Clear removes all entries. In-flight native events referencing cleared
// identifiers are dropped when they arrive.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = make(map[string]Operation)
}
