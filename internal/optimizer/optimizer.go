package optimizer

import (
	"context"
	"time"

	"github.com/agentperf/agentperf/internal/cache"
	"github.com/agentperf/agentperf/internal/profile"
	"github.com/agentperf/agentperf/pkg/utils"
)

// ToolFunc is the invoked tool implementation. Tools are opaque to the
// optimizer: it only keys, times, and caches them.
type ToolFunc func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// ToolOptimizer wraps tool invocations with result caching, section
// profiling, and redundant-call detection. Construct one per application
// and pass it by reference; it has no hidden global state.
type ToolOptimizer struct {
	caches   *cache.Manager
	profiler *profile.Profiler
	detector *RedundantCallDetector
	logger   *utils.Logger
}

// NewToolOptimizer creates a tool optimizer over the given cache manager
// and profiler. A nil detector disables redundancy warnings.
func NewToolOptimizer(caches *cache.Manager, profiler *profile.Profiler, detector *RedundantCallDetector, logger *utils.Logger) *ToolOptimizer {
	return &ToolOptimizer{
		caches:   caches,
		profiler: profiler,
		detector: detector,
		logger:   utils.OrDiscard(logger).WithComponent("optimizer"),
	}
}

// InvokeCached runs the tool through the cache: a live cached result for
// the same call key is returned without invoking fn, and a miss invokes
// fn under the profiler section "tool.<name>" and stores the result with
// the given TTL (zero means the tool namespace default). Tool errors are
// returned as-is and never cached.
func (o *ToolOptimizer) InvokeCached(ctx context.Context, name string, fn ToolFunc, args []interface{}, kwargs map[string]interface{}, ttl time.Duration) (interface{}, error) {
	key, lossy := CallKey(name, args, kwargs)
	if lossy {
		o.logger.Debug("call key for %s uses lossy fallback hashing", name)
	}
	if o.detector != nil {
		o.detector.RecordCall(name, key)
	}

	if value, ok := o.caches.GetToolResult(name, key); ok {
		return value, nil
	}

	defer o.profiler.Section("tool." + name)()
	value, err := fn(ctx, args, kwargs)
	if err != nil {
		return nil, err
	}

	o.caches.SetToolResult(name, key, value, ttl)
	return value, nil
}

// InvokeDeduped runs the tool with profiling and redundancy detection but
// no caching, for results that are too large to store or must always be
// recomputed.
func (o *ToolOptimizer) InvokeDeduped(ctx context.Context, name string, fn ToolFunc, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	key, lossy := CallKey(name, args, kwargs)
	if lossy {
		o.logger.Debug("call key for %s uses lossy fallback hashing", name)
	}
	if o.detector != nil {
		o.detector.RecordCall(name, key)
	}

	defer o.profiler.Section("tool." + name)()
	return fn(ctx, args, kwargs)
}

// Wrap returns a ToolFunc that routes every invocation through
// InvokeCached, so a tool can be decorated once and called normally.
func (o *ToolOptimizer) Wrap(name string, fn ToolFunc, ttl time.Duration) ToolFunc {
	return func(ctx context.Context, args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		return o.InvokeCached(ctx, name, fn, args, kwargs, ttl)
	}
}
