package types

import (
	"context"
	"errors"
	"time"
)

// CacheStats represents cache performance statistics for a single namespace.
type CacheStats struct {
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	Evictions  uint64  `json:"evictions"`
	Expired    uint64  `json:"expired"`
	Size       int     `json:"size"`
	MaxEntries int     `json:"max_entries"`
	HitRate    float64 `json:"hit_rate"`
}

// SectionStats represents aggregate timing statistics for one profiled
// section. All values are derived from the recorded samples on demand.
type SectionStats struct {
	Count int           `json:"count"`
	Total time.Duration `json:"total_time"`
	Avg   time.Duration `json:"avg_time"`
	Min   time.Duration `json:"min_time"`
	Max   time.Duration `json:"max_time"`
}

// ErrNotFound is returned by Store implementations when the requested
// record does not exist. Callers should check with errors.Is.
var ErrNotFound = errors.New("record not found")

// Store abstracts the backing key-value store that the memory manager
// reads through and writes through. Records are addressed by a kind
// (e.g. "profile", "goals") and an owner id.
type Store interface {
	// Load returns the raw record, or ErrNotFound.
	Load(ctx context.Context, kind, id string) ([]byte, error)

	// Save persists the raw record, overwriting any previous version.
	Save(ctx context.Context, kind, id string, data []byte) error

	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, kind, id string) error
}
