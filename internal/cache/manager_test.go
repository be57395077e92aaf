package cache

import (
	"sync"
	"testing"
	"time"
)

func TestNewManagerDefaults(t *testing.T) {
	m := NewManager(nil, nil)

	for _, ns := range []string{NamespaceProfile, NamespaceGoals, NamespaceTool, NamespaceCalculation} {
		cache, err := m.Namespace(ns)
		if err != nil {
			t.Fatalf("missing namespace %s: %v", ns, err)
		}
		if cache == nil {
			t.Fatalf("nil cache for namespace %s", ns)
		}
	}

	if _, err := m.Namespace("bogus"); err == nil {
		t.Error("expected error for unknown namespace")
	}
}

func TestManagerTypedAccessors(t *testing.T) {
	m := NewManager(nil, nil)

	m.SetProfile("u1", map[string]string{"name": "test"})
	m.SetGoals("u1", []string{"goal-a"})
	m.SetToolResult("calc", "key1", 42, 0)
	m.SetCalculation("bmi:u1", 21.5)

	if _, ok := m.GetProfile("u1"); !ok {
		t.Error("profile not cached")
	}
	if _, ok := m.GetGoals("u1"); !ok {
		t.Error("goals not cached")
	}
	if v, ok := m.GetToolResult("calc", "key1"); !ok || v != 42 {
		t.Errorf("tool result = %v (ok=%v), want 42", v, ok)
	}
	if v, ok := m.GetCalculation("bmi:u1"); !ok || v != 21.5 {
		t.Errorf("calculation = %v (ok=%v), want 21.5", v, ok)
	}
}

func TestManagerNamespaceIsolation(t *testing.T) {
	m := NewManager(nil, nil)

	m.SetProfile("u1", "profile-data")

	// The same user id must not leak across namespaces.
	if _, ok := m.GetGoals("u1"); ok {
		t.Error("profile write visible through goals accessor")
	}
}

func TestManagerInvalidateUser(t *testing.T) {
	m := NewManager(nil, nil)

	m.SetProfile("u1", "p1")
	m.SetGoals("u1", "g1")
	m.SetProfile("u2", "p2")
	m.SetToolResult("calc", "key", "cached", 0)

	m.InvalidateUser("u1")

	if _, ok := m.GetProfile("u1"); ok {
		t.Error("u1 profile survived invalidation")
	}
	if _, ok := m.GetGoals("u1"); ok {
		t.Error("u1 goals survived invalidation")
	}
	if _, ok := m.GetProfile("u2"); !ok {
		t.Error("u2 profile should not be touched")
	}
	if _, ok := m.GetToolResult("calc", "key"); !ok {
		t.Error("tool namespace should not be touched")
	}
}

func TestManagerInvalidateUserIdempotent(t *testing.T) {
	m := NewManager(nil, nil)

	m.SetProfile("u1", "p1")

	for i := 0; i < 3; i++ {
		m.InvalidateUser("u1")
		if _, ok := m.GetProfile("u1"); ok {
			t.Fatalf("profile readable after invalidation round %d", i+1)
		}
	}
}

func TestManagerInvalidateUserPrefixSafety(t *testing.T) {
	m := NewManager(nil, nil)

	m.SetProfile("u1", "p1")
	m.SetProfile("u10", "p10")

	m.InvalidateUser("u1")

	if _, ok := m.GetProfile("u10"); !ok {
		t.Error("u10 must survive invalidation of u1")
	}
}

func TestManagerClearAll(t *testing.T) {
	m := NewManager(nil, nil)

	m.SetProfile("u1", "p")
	m.SetCalculation("c", 1)
	m.GetProfile("u1")

	m.ClearAll()

	for ns, stats := range m.AllStats() {
		if stats.Size != 0 {
			t.Errorf("namespace %s not empty after ClearAll: size=%d", ns, stats.Size)
		}
		if stats.Hits != 0 || stats.Misses != 0 {
			t.Errorf("namespace %s counters not reset: %+v", ns, stats)
		}
	}
}

func TestManagerAllStats(t *testing.T) {
	m := NewManager(nil, nil)

	m.SetProfile("u1", "p")
	m.GetProfile("u1")
	m.GetProfile("u2")

	stats := m.AllStats()
	if len(stats) != 4 {
		t.Fatalf("expected 4 namespaces, got %d", len(stats))
	}

	profile := stats[NamespaceProfile]
	if profile.Hits != 1 || profile.Misses != 1 {
		t.Errorf("profile stats = %+v, want 1 hit / 1 miss", profile)
	}
}

func TestManagerToolTTLOverride(t *testing.T) {
	config := DefaultManagerConfig()
	m := NewManager(config, nil)

	clock := newFakeClock()
	tool, _ := m.Namespace(NamespaceTool)
	tool.now = clock.Now

	m.SetToolResult("search", "key", "result", time.Second)

	clock.Advance(1500 * time.Millisecond)
	if _, ok := m.GetToolResult("search", "key"); ok {
		t.Error("override TTL not honored")
	}
}

func TestManagerConcurrentInvalidation(t *testing.T) {
	m := NewManager(nil, nil)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				m.SetProfile("u1", i)
				m.SetGoals("u1", i)
				m.InvalidateUser("u1")

				// After our own invalidation either both namespaces miss or
				// a concurrent writer has repopulated them; what must never
				// happen is a torn read where the pair disagrees because of
				// the invalidation itself. Just exercise the paths here.
				m.GetProfile("u1")
				m.GetGoals("u1")
			}
		}()
	}
	wg.Wait()
}
