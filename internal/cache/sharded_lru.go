package cache

import (
	"context"
	"hash/maphash"
	"sync"
)

const numShards = 64

// ShardedLRUBlockCache is a sharded LRU cache for high-concurrency workloads.
// It distributes entries across 64 shards to reduce lock contention.
type ShardedLRUBlockCache struct {
	shards [numShards]*LRUBlockCache
	seed   maphash.Seed
}

// NewShardedLRUBlockCache creates a new sharded LRU cache.
// The capacity is divided evenly across all shards.
func NewShardedLRUBlockCache(capacity int64) *ShardedLRUBlockCache {
	shardCapacity := max(capacity/numShards, 1)

	s := &ShardedLRUBlockCache{
		seed: maphash.MakeSeed(),
	}
	for i := range numShards {
		s.shards[i] = NewLRUBlockCache(shardCapacity)
	}
	return s
}

func (s *ShardedLRUBlockCache) shard(key Key) *LRUBlockCache {
	return s.shards[maphash.Comparable(s.seed, key)%numShards]
}

// Get returns a cached block.
func (s *ShardedLRUBlockCache) Get(ctx context.Context, key Key) ([]byte, bool) {
	return s.shard(key).Get(ctx, key)
}

// Set caches a block.
func (s *ShardedLRUBlockCache) Set(ctx context.Context, key Key, b []byte) {
	s.shard(key).Set(ctx, key, b)
}

// Invalidate removes entries matching the predicate.
// This iterates all shards, which is expensive but rare.
func (s *ShardedLRUBlockCache) Invalidate(predicate func(key Key) bool) {
	var wg sync.WaitGroup
	wg.Add(numShards)
	for _, shard := range s.shards {
		go func() {
			defer wg.Done()
			shard.Invalidate(predicate)
		}()
	}
	wg.Wait()
}

// Stats returns aggregated hit/miss statistics.
func (s *ShardedLRUBlockCache) Stats() (hits, misses int64) {
	for _, shard := range s.shards {
		h, m := shard.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the total size across all shards.
func (s *ShardedLRUBlockCache) Size() int64 {
	var total int64
	for _, shard := range s.shards {
		total += shard.Size()
	}
	return total
}
