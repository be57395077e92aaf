package cache

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/agentperf/agentperf/pkg/types"
	"github.com/agentperf/agentperf/pkg/utils"
)

// Namespace names for the managed caches.
const (
	NamespaceProfile     = "profile"
	NamespaceGoals       = "goals"
	NamespaceTool        = "tool"
	NamespaceCalculation = "calculation"
)

// Manager composes the named TTL caches used across the optimization layer.
// Each namespace has its own TTL and size budget: profiles change rarely,
// goals occasionally, tool results are expensive to recompute but go stale
// fast, and calculations are cheap but requested constantly.
type Manager struct {
	mu       sync.RWMutex
	caches   map[string]*TimedCache
	config   *ManagerConfig
	logger   *utils.Logger
	observer StatsObserver
}

// StatsObserver receives per-lookup cache outcomes, e.g. for export to a
// metrics backend.
type StatsObserver interface {
	RecordCacheHit(namespace string)
	RecordCacheMiss(namespace string)
}

// ManagerConfig represents per-namespace cache configuration.
type ManagerConfig struct {
	Profile     TimedConfig `yaml:"profile"`
	Goals       TimedConfig `yaml:"goals"`
	Tool        TimedConfig `yaml:"tool"`
	Calculation TimedConfig `yaml:"calculation"`
}

// DefaultManagerConfig returns the default namespace budgets.
func DefaultManagerConfig() *ManagerConfig {
	return &ManagerConfig{
		Profile:     TimedConfig{DefaultTTL: 30 * time.Minute, MaxEntries: 500},
		Goals:       TimedConfig{DefaultTTL: 10 * time.Minute, MaxEntries: 1000},
		Tool:        TimedConfig{DefaultTTL: 2 * time.Minute, MaxEntries: 2000},
		Calculation: TimedConfig{DefaultTTL: 30 * time.Second, MaxEntries: 4000},
	}
}

// NewManager creates a cache manager. A nil config gets defaults.
func NewManager(config *ManagerConfig, logger *utils.Logger) *Manager {
	if config == nil {
		config = DefaultManagerConfig()
	}

	return &Manager{
		caches: map[string]*TimedCache{
			NamespaceProfile:     NewTimedCache(&config.Profile),
			NamespaceGoals:       NewTimedCache(&config.Goals),
			NamespaceTool:        NewTimedCache(&config.Tool),
			NamespaceCalculation: NewTimedCache(&config.Calculation),
		},
		config: config,
		logger: utils.OrDiscard(logger).WithComponent("cache"),
	}
}

// SetObserver forwards every future lookup outcome to the given sink.
func (m *Manager) SetObserver(observer StatsObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observer = observer
}

// GetProfile returns the cached profile for a user.
func (m *Manager) GetProfile(userID string) (interface{}, bool) {
	return m.get(NamespaceProfile, userKey(userID, "profile"))
}

// SetProfile caches a user's profile under the profile namespace TTL.
func (m *Manager) SetProfile(userID string, profile interface{}) {
	m.set(NamespaceProfile, userKey(userID, "profile"), profile, 0)
}

// GetGoals returns the cached goals for a user.
func (m *Manager) GetGoals(userID string) (interface{}, bool) {
	return m.get(NamespaceGoals, userKey(userID, "goals"))
}

// SetGoals caches a user's goals under the goals namespace TTL.
func (m *Manager) SetGoals(userID string, goals interface{}) {
	m.set(NamespaceGoals, userKey(userID, "goals"), goals, 0)
}

// GetToolResult returns a cached tool invocation result.
func (m *Manager) GetToolResult(toolName, callKey string) (interface{}, bool) {
	return m.get(NamespaceTool, toolKey(toolName, callKey))
}

// SetToolResult caches a tool invocation result. A non-positive ttl uses
// the tool namespace default.
func (m *Manager) SetToolResult(toolName, callKey string, result interface{}, ttl time.Duration) {
	m.set(NamespaceTool, toolKey(toolName, callKey), result, ttl)
}

// GetCalculation returns a cached derived value.
func (m *Manager) GetCalculation(key string) (interface{}, bool) {
	return m.get(NamespaceCalculation, key)
}

// SetCalculation caches a derived value under the calculation namespace TTL.
func (m *Manager) SetCalculation(key string, value interface{}) {
	m.set(NamespaceCalculation, key, value, 0)
}

// InvalidateUser removes the user's entries from every namespace that keys
// by user: profile and goals. The manager lock is held across both
// deletions so no caller can observe a partially invalidated user.
// Invalidating an absent user is a no-op, so repeated calls are idempotent.
func (m *Manager) InvalidateUser(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := userID + ":"
	removed := 0
	for _, ns := range []string{NamespaceProfile, NamespaceGoals} {
		cache := m.caches[ns]
		for _, key := range cache.Keys() {
			if strings.HasPrefix(key, prefix) {
				if cache.Delete(key) {
					removed++
				}
			}
		}
	}

	m.logger.Debug("invalidated user %s (%d entries)", userID, removed)
}

// Namespace exposes one underlying cache by name, for callers that need
// operations beyond the typed accessors.
func (m *Manager) Namespace(name string) (*TimedCache, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cache, ok := m.caches[name]
	if !ok {
		return nil, fmt.Errorf("unknown cache namespace %q", name)
	}
	return cache, nil
}

// ClearAll resets every namespace and its counters.
func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cache := range m.caches {
		cache.Clear()
	}
}

// AllStats aggregates per-namespace statistics.
func (m *Manager) AllStats() map[string]types.CacheStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]types.CacheStats, len(m.caches))
	for name, cache := range m.caches {
		stats[name] = cache.Stats()
	}
	return stats
}

// Helper methods

// get holds the manager read lock across the cache call so that a reader
// can never interleave with InvalidateUser and see a half-invalidated user.
func (m *Manager) get(namespace, key string) (interface{}, bool) {
	m.mu.RLock()
	value, ok := m.caches[namespace].Get(key)
	observer := m.observer
	m.mu.RUnlock()

	if observer != nil {
		if ok {
			observer.RecordCacheHit(namespace)
		} else {
			observer.RecordCacheMiss(namespace)
		}
	}
	return value, ok
}

func (m *Manager) set(namespace, key string, value interface{}, ttl time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cache := m.caches[namespace]

	if ttl > 0 {
		cache.SetTTL(key, value, ttl)
		return
	}
	cache.Set(key, value)
}

func userKey(userID, kind string) string {
	return userID + ":" + kind
}

func toolKey(toolName, callKey string) string {
	return toolName + ":" + callKey
}
