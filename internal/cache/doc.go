/*
Package cache provides the time-bounded caching layer for agentperf.

Two pieces make up the layer: TimedCache, a single TTL-bounded pool with
batch LRU eviction, and Manager, which composes four independently budgeted
TimedCache namespaces (profile, goals, tool, calculation) behind typed
accessors.

# Eviction Model

Every entry carries its own TTL (defaulting to the namespace TTL) and is
removed lazily: a Get that finds an expired entry deletes it and reports a
miss, and every Set sweeps the remaining expired entries before inserting.
When a Set would push the cache past MaxEntries, the ~10% of entries with
the oldest last access time are evicted in one batch. This is a deliberate
approximation of LRU: batch eviction at capacity is O(n log n) once per
batch instead of O(log n) on every insert, which is the right trade for
pools bounded at a few thousand entries.

# Concurrency

Every TimedCache guards its map with a mutex; the Manager adds its own lock
so that multi-namespace operations (InvalidateUser) are atomic from the
caller's point of view. All operations are synchronous and non-blocking:
there are no background goroutines to start or stop.

# Statistics

Each cache counts hits, misses, evictions, and expirations. Stats() derives
the hit rate on read; Manager.AllStats() aggregates per namespace.
*/
package cache
