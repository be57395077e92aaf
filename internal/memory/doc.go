// Package memory provides the cache-aside layer between domain records
// and their backing store, plus lazy loading and batch prefetching.
//
// Read path:
//
//	caller ──> Manager.GetProfile ──> cache hit? ──> return
//	                               └─> Store.Load ──> populate cache ──> return
//
// Write path:
//
//	caller ──> Manager.SaveProfile ──> Store.Save ──> update cache entry
//
// Saves update the cached entry rather than invalidating it, so a read
// immediately after a write is always a cache hit. The PrefetchManager
// warms the cache ahead of demand; its failures never reach the caller.
package memory
