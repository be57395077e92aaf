package cache

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/agentperf/agentperf/pkg/types"
)

// TimedCache implements a thread-safe TTL cache with batch LRU eviction.
// Entries expire default TTL after insertion and are removed lazily: an
// expired entry found by Get counts as a miss, and Set sweeps all expired
// entries before inserting.
type TimedCache struct {
	mu      sync.RWMutex
	entries map[string]*entry

	// Configuration
	config *TimedConfig

	// Statistics
	stats types.CacheStats

	// now is the clock used for TTL checks; overridable in tests.
	now func() time.Time
}

// TimedConfig represents the configuration for a single TimedCache.
type TimedConfig struct {
	DefaultTTL time.Duration `yaml:"default_ttl"`
	MaxEntries int           `yaml:"max_entries"`

	// EvictFraction is the share of MaxEntries removed per capacity
	// eviction, rounded up. Zero means the default of 0.1.
	EvictFraction float64 `yaml:"evict_fraction"`
}

// entry is a single cache slot. Owned exclusively by the cache; all access
// goes through the cache mutex.
type entry struct {
	value       interface{}
	ttl         time.Duration
	createdAt   time.Time
	lastAccess  time.Time
	accessCount int64
}

// NewTimedCache creates a new TTL cache. A nil config gets defaults.
func NewTimedCache(config *TimedConfig) *TimedCache {
	if config == nil {
		config = &TimedConfig{}
	}
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 5 * time.Minute
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = 1000
	}
	if config.EvictFraction <= 0 || config.EvictFraction > 1 {
		config.EvictFraction = 0.1
	}

	return &TimedCache{
		entries: make(map[string]*entry),
		config:  config,
		stats: types.CacheStats{
			MaxEntries: config.MaxEntries,
		},
		now: time.Now,
	}
}

// Get retrieves a value. An expired entry is removed and reported as a miss.
// Every call increments exactly one of the hit or miss counters.
func (c *TimedCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return nil, false
	}

	if c.expired(e) {
		delete(c.entries, key)
		c.stats.Expired++
		c.stats.Misses++
		return nil, false
	}

	e.lastAccess = c.now()
	e.accessCount++
	c.stats.Hits++
	return e.value, true
}

// Set stores a value under the cache's default TTL.
func (c *TimedCache) Set(key string, value interface{}) {
	c.SetTTL(key, value, c.config.DefaultTTL)
}

// SetTTL stores a value with a per-entry TTL override. Before inserting it
// sweeps expired entries, then evicts a batch of the least recently used
// entries if the cache is at capacity. Overwrites any existing entry.
func (c *TimedCache) SetTTL(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweepExpired()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.config.MaxEntries {
		c.evictBatch()
	}

	now := c.now()
	c.entries[key] = &entry{
		value:      value,
		ttl:        ttl,
		createdAt:  now,
		lastAccess: now,
	}
}

// Delete removes an entry, reporting whether it was present.
func (c *TimedCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, exists := c.entries[key]
	delete(c.entries, key)
	return exists
}

// Clear removes all entries and resets the counters.
func (c *TimedCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.stats = types.CacheStats{MaxEntries: c.config.MaxEntries}
}

// Len returns the number of live entries, expired ones included until the
// next sweep touches them.
func (c *TimedCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns all current keys in no particular order.
func (c *TimedCache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	return keys
}

// Stats returns a snapshot of the cache counters.
func (c *TimedCache) Stats() types.CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = len(c.entries)
	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// Helper methods

func (c *TimedCache) expired(e *entry) bool {
	return c.now().Sub(e.createdAt) > e.ttl
}

func (c *TimedCache) sweepExpired() {
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			c.stats.Expired++
		}
	}
}

// evictBatch removes the least recently used ~10% of entries. Batch
// eviction at capacity keeps inserts O(1) amortized without maintaining an
// ordered structure on every access.
func (c *TimedCache) evictBatch() {
	count := int(math.Ceil(float64(c.config.MaxEntries) * c.config.EvictFraction))
	if count < 1 {
		count = 1
	}

	type aged struct {
		key        string
		lastAccess time.Time
	}
	byAge := make([]aged, 0, len(c.entries))
	for key, e := range c.entries {
		byAge = append(byAge, aged{key: key, lastAccess: e.lastAccess})
	}
	sort.Slice(byAge, func(i, j int) bool {
		return byAge[i].lastAccess.Before(byAge[j].lastAccess)
	})

	if count > len(byAge) {
		count = len(byAge)
	}
	for _, victim := range byAge[:count] {
		delete(c.entries, victim.key)
		c.stats.Evictions++
	}
}
