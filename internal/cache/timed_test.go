package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(config *TimedConfig) (*TimedCache, *fakeClock) {
	cache := NewTimedCache(config)
	clock := newFakeClock()
	cache.now = clock.Now
	return cache, clock
}

func TestNewTimedCache(t *testing.T) {
	tests := []struct {
		name   string
		config *TimedConfig
		verify func(t *testing.T, cache *TimedCache)
	}{
		{
			name:   "nil config uses defaults",
			config: nil,
			verify: func(t *testing.T, cache *TimedCache) {
				if cache.config.DefaultTTL != 5*time.Minute {
					t.Errorf("expected default TTL 5min, got %v", cache.config.DefaultTTL)
				}
				if cache.config.MaxEntries != 1000 {
					t.Errorf("expected default max entries 1000, got %d", cache.config.MaxEntries)
				}
				if cache.config.EvictFraction != 0.1 {
					t.Errorf("expected default evict fraction 0.1, got %v", cache.config.EvictFraction)
				}
			},
		},
		{
			name: "custom config applied",
			config: &TimedConfig{
				DefaultTTL:    time.Minute,
				MaxEntries:    50,
				EvictFraction: 0.2,
			},
			verify: func(t *testing.T, cache *TimedCache) {
				if cache.config.DefaultTTL != time.Minute {
					t.Errorf("expected TTL 1min, got %v", cache.config.DefaultTTL)
				}
				if cache.config.MaxEntries != 50 {
					t.Errorf("expected max entries 50, got %d", cache.config.MaxEntries)
				}
			},
		},
		{
			name:   "out-of-range fraction reset to default",
			config: &TimedConfig{EvictFraction: 1.5},
			verify: func(t *testing.T, cache *TimedCache) {
				if cache.config.EvictFraction != 0.1 {
					t.Errorf("expected fraction 0.1, got %v", cache.config.EvictFraction)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewTimedCache(tt.config)
			if cache == nil {
				t.Fatal("NewTimedCache returned nil")
			}
			if cache.entries == nil {
				t.Error("entries map not initialized")
			}
			tt.verify(t, cache)
		})
	}
}

func TestTimedCache_SetGet(t *testing.T) {
	cache, _ := newTestCache(nil)

	cache.Set("k", "v")

	value, ok := cache.Get("k")
	if !ok {
		t.Fatal("Get reported miss for existing key")
	}
	if value != "v" {
		t.Errorf("expected %q, got %v", "v", value)
	}

	stats := cache.Stats()
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 0 {
		t.Errorf("expected 0 misses, got %d", stats.Misses)
	}
}

func TestTimedCache_GetMiss(t *testing.T) {
	cache, _ := newTestCache(nil)

	if _, ok := cache.Get("nonexistent"); ok {
		t.Error("expected miss for nonexistent key")
	}

	stats := cache.Stats()
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
}

func TestTimedCache_Expiry(t *testing.T) {
	cache, clock := newTestCache(&TimedConfig{DefaultTTL: time.Second, MaxEntries: 10})

	cache.Set("k", "v")

	if _, ok := cache.Get("k"); !ok {
		t.Fatal("expected immediate hit")
	}

	clock.Advance(1100 * time.Millisecond)

	if _, ok := cache.Get("k"); ok {
		t.Error("expected miss after TTL elapsed")
	}
	if cache.Len() != 0 {
		t.Errorf("expired entry not removed, len=%d", cache.Len())
	}

	stats := cache.Stats()
	if stats.Expired != 1 {
		t.Errorf("expected 1 expiration, got %d", stats.Expired)
	}
}

func TestTimedCache_PerEntryTTL(t *testing.T) {
	cache, clock := newTestCache(&TimedConfig{DefaultTTL: time.Hour, MaxEntries: 10})

	cache.SetTTL("short", "v", time.Second)
	cache.Set("long", "v")

	clock.Advance(2 * time.Second)

	if _, ok := cache.Get("short"); ok {
		t.Error("short-TTL entry should have expired")
	}
	if _, ok := cache.Get("long"); !ok {
		t.Error("default-TTL entry should still be live")
	}
}

func TestTimedCache_Overwrite(t *testing.T) {
	cache, _ := newTestCache(nil)

	cache.Set("k", "first")
	cache.Set("k", "second")

	value, ok := cache.Get("k")
	if !ok || value != "second" {
		t.Errorf("expected overwritten value %q, got %v (ok=%v)", "second", value, ok)
	}
	if cache.Len() != 1 {
		t.Errorf("overwrite should not grow cache, len=%d", cache.Len())
	}
}

func TestTimedCache_CapacityEviction(t *testing.T) {
	cache, clock := newTestCache(&TimedConfig{DefaultTTL: time.Hour, MaxEntries: 10})

	// Insert 10 keys at distinct access times so the LRU order is stable.
	for i := 0; i < 10; i++ {
		cache.Set(fmt.Sprintf("k%d", i), i)
		clock.Advance(time.Second)
	}

	// The 11th insert must trigger a batch eviction of ceil(10*0.1) = 1
	// entry, the one with the oldest last access: k0.
	cache.Set("k10", 10)

	if cache.Len() > 10 {
		t.Errorf("cache over capacity after insert: len=%d", cache.Len())
	}
	if _, ok := cache.Get("k0"); ok {
		t.Error("expected oldest entry k0 to be evicted")
	}
	if _, ok := cache.Get("k10"); !ok {
		t.Error("expected new entry k10 to be present")
	}

	stats := cache.Stats()
	if stats.Evictions != 1 {
		t.Errorf("expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestTimedCache_EvictionPrefersColdEntries(t *testing.T) {
	cache, clock := newTestCache(&TimedConfig{DefaultTTL: time.Hour, MaxEntries: 10})

	for i := 0; i < 10; i++ {
		cache.Set(fmt.Sprintf("k%d", i), i)
		clock.Advance(time.Second)
	}

	// Touch k0 so it is no longer the coldest; k1 becomes the victim.
	if _, ok := cache.Get("k0"); !ok {
		t.Fatal("setup: k0 missing")
	}
	clock.Advance(time.Second)

	cache.Set("k10", 10)

	if _, ok := cache.Get("k0"); !ok {
		t.Error("recently accessed k0 should survive eviction")
	}
	if _, ok := cache.Get("k1"); ok {
		t.Error("coldest entry k1 should have been evicted")
	}
}

func TestTimedCache_SetSweepsExpired(t *testing.T) {
	cache, clock := newTestCache(&TimedConfig{DefaultTTL: time.Second, MaxEntries: 10})

	cache.Set("a", 1)
	cache.Set("b", 2)
	clock.Advance(2 * time.Second)

	cache.Set("c", 3)

	if cache.Len() != 1 {
		t.Errorf("expected only fresh entry after sweep, len=%d", cache.Len())
	}
	stats := cache.Stats()
	if stats.Expired != 2 {
		t.Errorf("expected 2 expirations, got %d", stats.Expired)
	}
}

func TestTimedCache_Delete(t *testing.T) {
	cache, _ := newTestCache(nil)

	cache.Set("k", "v")

	if !cache.Delete("k") {
		t.Error("Delete should report true for existing key")
	}
	if cache.Delete("k") {
		t.Error("Delete should report false for missing key")
	}
	if _, ok := cache.Get("k"); ok {
		t.Error("deleted key still readable")
	}
}

func TestTimedCache_Clear(t *testing.T) {
	cache, _ := newTestCache(nil)

	cache.Set("a", 1)
	cache.Set("b", 2)
	cache.Get("a")
	cache.Get("missing")

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("expected empty cache, len=%d", cache.Len())
	}
	stats := cache.Stats()
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Errorf("expected reset counters, got hits=%d misses=%d", stats.Hits, stats.Misses)
	}
}

func TestTimedCache_HitRateMonotonicity(t *testing.T) {
	cache, _ := newTestCache(nil)

	cache.Set("k", "v")

	var lastHits uint64
	for i := 0; i < 5; i++ {
		if _, ok := cache.Get("k"); !ok {
			t.Fatal("unexpected miss on populated, non-expired key")
		}
		stats := cache.Stats()
		if stats.Hits <= lastHits {
			t.Errorf("hit counter did not increase: %d -> %d", lastHits, stats.Hits)
		}
		if stats.Misses != 0 {
			t.Errorf("miss counter moved on repeated hits: %d", stats.Misses)
		}
		lastHits = stats.Hits
	}

	stats := cache.Stats()
	if stats.HitRate != 1.0 {
		t.Errorf("expected hit rate 1.0, got %v", stats.HitRate)
	}
}

func TestTimedCache_ConcurrentAccess(t *testing.T) {
	cache := NewTimedCache(&TimedConfig{DefaultTTL: time.Minute, MaxEntries: 100})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%20)
				if i%3 == 0 {
					cache.Set(key, g)
				} else {
					cache.Get(key)
				}
			}
		}(g)
	}
	wg.Wait()

	stats := cache.Stats()
	if stats.Hits+stats.Misses == 0 {
		t.Error("expected recorded gets under concurrency")
	}
	if cache.Len() > 100 {
		t.Errorf("capacity bound violated under concurrency: len=%d", cache.Len())
	}
}
