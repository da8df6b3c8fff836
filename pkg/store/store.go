// Package store is a concurrent map split into independently locked shards.
//
// A key always maps to the same shard, so operations on one key are serialized by that shard's
// lock while keys on other shards proceed in parallel. Values are replaced whole, a reader sees the
// previous value or the new one and never a mix.
package store

import (
	"github.com/cespare/xxhash/v2"
	gocache "github.com/patrickmn/go-cache"
)

const DefaultShards = 32

type Sharded[V any] struct {
	shards []*gocache.Cache
}

// NewSharded creates a map with n shards, n below one uses DefaultShards. Entries never expire.
func NewSharded[V any](n int) *Sharded[V] {
	if n < 1 {
		n = DefaultShards
	}
	shards := make([]*gocache.Cache, n)
	for i := range shards {
		shards[i] = gocache.New(gocache.NoExpiration, 0)
	}
	return &Sharded[V]{shards: shards}
}

func (s *Sharded[V]) shard(key string) *gocache.Cache {
	return s.shards[xxhash.Sum64String(key)%uint64(len(s.shards))]
}

// Put stores value under key, replacing any previous value.
func (s *Sharded[V]) Put(key string, value V) {
	s.shard(key).Set(key, value, gocache.NoExpiration)
}

// Get returns the value stored under key.
func (s *Sharded[V]) Get(key string) (V, bool) {
	var zero V
	value, found := s.shard(key).Get(key)
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

// Delete removes key. Deleting a missing key is a no-op.
func (s *Sharded[V]) Delete(key string) {
	s.shard(key).Delete(key)
}

// Len is the number of entries across all shards.
func (s *Sharded[V]) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.ItemCount()
	}
	return n
}

// Keys returns every key, in no particular order.
func (s *Sharded[V]) Keys() []string {
	keys := make([]string, 0, s.Len())
	for _, sh := range s.shards {
		for k := range sh.Items() {
			keys = append(keys, k)
		}
	}
	return keys
}
