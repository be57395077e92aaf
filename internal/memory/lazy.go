package memory

import (
	"context"
	"sync"
	"sync/atomic"
)

// LoaderFunc produces a value on first use.
type LoaderFunc func(ctx context.Context) (interface{}, error)

// LazyLoader defers a load until the value is first requested and
// memoizes the outcome for the loader's lifetime, errors included.
// Safe for concurrent use; the loader runs at most once.
type LazyLoader struct {
	once   sync.Once
	loaded atomic.Bool
	load   LoaderFunc

	value interface{}
	err   error
}

// NewLazyLoader wraps a loader function without invoking it.
func NewLazyLoader(load LoaderFunc) *LazyLoader {
	return &LazyLoader{load: load}
}

// Value returns the loaded value, running the loader on the first call.
// Every subsequent call returns the same value and error.
func (l *LazyLoader) Value(ctx context.Context) (interface{}, error) {
	l.once.Do(func() {
		l.value, l.err = l.load(ctx)
		l.loaded.Store(true)
	})
	return l.value, l.err
}

// Loaded reports whether the loader has run.
func (l *LazyLoader) Loaded() bool {
	return l.loaded.Load()
}
