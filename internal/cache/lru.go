package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// LRUBlockCache implements a simple LRU BlockCache bounded in bytes.
type LRUBlockCache struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   Key
	value []byte
}

// NewLRUBlockCache creates a new LRU cache with the given capacity in bytes.
func NewLRUBlockCache(capacity int64) *LRUBlockCache {
	return &LRUBlockCache{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a cached block.
func (c *LRUBlockCache) Get(_ context.Context, key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a block. Blocks larger than the capacity are not cached.
func (c *LRUBlockCache) Set(_ context.Context, key Key, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	itemSize := int64(len(b))
	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		e := ent.Value.(*entry)
		c.size += itemSize - int64(len(e.value))
		e.value = b
		c.evict()
		return
	}

	if itemSize > c.capacity {
		return
	}

	c.items[key] = c.evictList.PushFront(&entry{key, b})
	c.size += itemSize
	c.evict()
}

// Invalidate removes entries matching the predicate.
func (c *LRUBlockCache) Invalidate(predicate func(key Key) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for key, element := range c.items {
		if predicate(key) {
			toRemove = append(toRemove, element)
		}
	}
	for _, e := range toRemove {
		c.removeElement(e)
	}
}

func (c *LRUBlockCache) evict() {
	for c.size > c.capacity {
		element := c.evictList.Back()
		if element == nil {
			return
		}
		c.removeElement(element)
	}
}

// Stats returns hit and miss counts.
func (c *LRUBlockCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRUBlockCache) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(c.items, kv.key)
	c.size -= int64(len(kv.value))
}

// Size returns the current size of the cache in bytes.
func (c *LRUBlockCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached blocks.
func (c *LRUBlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
