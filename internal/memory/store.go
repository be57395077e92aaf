package memory

import (
	"context"
	"sync"

	"github.com/agentperf/agentperf/pkg/types"
)

// MemStore is an in-memory Store implementation. It is the default
// backing store for tests and single-process deployments; production
// setups swap in the S3-backed store.
type MemStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		records: make(map[string][]byte),
	}
}

// Load returns the stored record, or types.ErrNotFound.
func (s *MemStore) Load(ctx context.Context, kind, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.records[recordKey(kind, id)]
	if !ok {
		return nil, types.ErrNotFound
	}

	// Copy so callers cannot mutate the stored record.
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Save persists the record, overwriting any previous version.
func (s *MemStore) Save(ctx context.Context, kind, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.records[recordKey(kind, id)] = stored
	return nil
}

// Delete removes the record. Deleting a missing record is not an error.
func (s *MemStore) Delete(ctx context.Context, kind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, recordKey(kind, id))
	return nil
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func recordKey(kind, id string) string {
	return kind + "/" + id
}
