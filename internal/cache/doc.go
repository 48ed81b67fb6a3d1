// Package cache provides in-memory LRU caching of immutable blob blocks.
//
// ShardedLRUBlockCache spreads keys over 64 independently locked LRU
// shards so that concurrent readers of different blobs rarely contend.
package cache
