/*
Package types provides the shared data structures and interfaces for agentperf.

This package is the dependency root of the module: every other package imports
it and nothing here imports any other agentperf package. It defines the
statistics records published by the cache and profiler layers and the Store
interface that decouples the memory manager from its backing storage.

# Core Types

CacheStats:
Per-namespace cache counters (hits, misses, evictions, expirations) plus the
derived hit rate. Returned by cache Stats() calls and aggregated by the
manager.

SectionStats:
Aggregate timing for one profiled section, computed on demand from the raw
duration samples. Returned by the profiler's Summary and TopSlowest.

Store:
The backing key-value store contract used for cache-aside reads and
write-through saves. Two implementations ship with the module: an in-memory
store for tests and local use, and an S3-backed store for durable state.
Missing records are reported with ErrNotFound, never with a typed nil.
*/
package types
