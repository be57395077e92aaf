package memory

import (
	"context"
	"fmt"

	"github.com/agentperf/agentperf/internal/cache"
	"github.com/agentperf/agentperf/pkg/types"
	"github.com/agentperf/agentperf/pkg/utils"
)

// Record kinds understood by the manager.
const (
	KindProfile = "profile"
	KindGoals   = "goals"
)

// Manager sits between domain records and their backing store. Reads are
// cache-aside: the cache is consulted first and populated on a store hit.
// Writes go through to the store and then update the cache entry in place,
// so a read immediately after a write never misses.
type Manager struct {
	store  types.Store
	caches *cache.Manager
	logger *utils.Logger
}

// NewManager creates a memory manager over the given store and cache layer.
func NewManager(store types.Store, caches *cache.Manager, logger *utils.Logger) *Manager {
	return &Manager{
		store:  store,
		caches: caches,
		logger: utils.OrDiscard(logger).WithComponent("memory"),
	}
}

// GetProfile returns the user's profile record, reading through the cache.
func (m *Manager) GetProfile(ctx context.Context, userID string) ([]byte, error) {
	if cached, ok := m.caches.GetProfile(userID); ok {
		return cached.([]byte), nil
	}

	data, err := m.store.Load(ctx, KindProfile, userID)
	if err != nil {
		return nil, err
	}

	m.caches.SetProfile(userID, data)
	return data, nil
}

// GetGoals returns the user's goals record, reading through the cache.
func (m *Manager) GetGoals(ctx context.Context, userID string) ([]byte, error) {
	if cached, ok := m.caches.GetGoals(userID); ok {
		return cached.([]byte), nil
	}

	data, err := m.store.Load(ctx, KindGoals, userID)
	if err != nil {
		return nil, err
	}

	m.caches.SetGoals(userID, data)
	return data, nil
}

// SaveProfile persists the profile and updates the cached copy.
func (m *Manager) SaveProfile(ctx context.Context, userID string, data []byte) error {
	if err := m.store.Save(ctx, KindProfile, userID, data); err != nil {
		return fmt.Errorf("failed to save profile for %s: %w", userID, err)
	}

	m.caches.SetProfile(userID, data)
	return nil
}

// SaveGoals persists the goals record and updates the cached copy.
func (m *Manager) SaveGoals(ctx context.Context, userID string, data []byte) error {
	if err := m.store.Save(ctx, KindGoals, userID, data); err != nil {
		return fmt.Errorf("failed to save goals for %s: %w", userID, err)
	}

	m.caches.SetGoals(userID, data)
	return nil
}

// Get reads a record of any known kind through the cache. Used by the
// prefetcher, which works over (kind, id) pairs.
func (m *Manager) Get(ctx context.Context, kind, id string) ([]byte, error) {
	switch kind {
	case KindProfile:
		return m.GetProfile(ctx, id)
	case KindGoals:
		return m.GetGoals(ctx, id)
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

// Invalidate drops the user's cached records. The backing store is untouched.
func (m *Manager) Invalidate(userID string) {
	m.caches.InvalidateUser(userID)
}
