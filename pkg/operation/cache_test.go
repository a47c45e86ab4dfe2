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

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-authbridge/pkg/clienterror"
)

func TestCachePutGet(t *testing.T) {
	cache := NewCache()
	op := &PlatformOperation{OperationID: "op-1", Domain: clienterror.DomainDeregistration}

	cache.Put(op)

	got, ok := cache.Get("op-1")
	require.True(t, ok)
	assert.Same(t, op, got)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheGetAbsent(t *testing.T) {
	cache := NewCache()

	got, ok := cache.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, got)
}

// Re-registering the same identifier replaces the previous entry rather than
// erroring, so a retried operation wins over a stale one.
func TestCachePutReplaces(t *testing.T) {
	cache := NewCache()
	first := &UserInteractionOperation{OperationID: "op-1", Domain: clienterror.DomainRegistration}
	second := &UserInteractionOperation{OperationID: "op-1", Domain: clienterror.DomainAuthentication}

	cache.Put(first)
	cache.Put(second)

	got, ok := cache.Get("op-1")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheDelete(t *testing.T) {
	cache := NewCache()
	cache.Put(&PlatformOperation{OperationID: "op-1"})

	cache.Delete("op-1")
	_, ok := cache.Get("op-1")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())

	// Deleting an absent identifier is a no-op.
	cache.Delete("op-1")
	cache.Delete("never-existed")
	assert.Equal(t, 0, cache.Len())
}

func TestCacheClear(t *testing.T) {
	cache := NewCache()
	for i := 0; i < 5; i++ {
		cache.Put(&PlatformOperation{OperationID: fmt.Sprintf("op-%d", i)})
	}
	require.Equal(t, 5, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	_, ok := cache.Get("op-3")
	assert.False(t, ok)
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := NewCache()
	done := make(chan struct{})

	for w := 0; w < 4; w++ {
		go func(w int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 100; i++ {
				id := fmt.Sprintf("op-%d-%d", w, i)
				cache.Put(&PlatformOperation{OperationID: id})
				cache.Get(id)
				cache.Delete(id)
			}
		}(w)
	}
	for w := 0; w < 4; w++ {
		<-done
	}

	assert.Equal(t, 0, cache.Len())
}
