package optimizer

import (
	"sync"

	"github.com/agentperf/agentperf/pkg/utils"
)

// RedundantCallDetector counts identical tool calls and warns once when a
// call signature crosses the warning threshold. Detection is advisory: it
// never blocks or modifies the call.
type RedundantCallDetector struct {
	mu        sync.Mutex
	counts    map[string]int
	warned    map[string]bool
	threshold int
	logger    *utils.Logger
}

// NewRedundantCallDetector creates a detector. A non-positive threshold
// defaults to 3.
func NewRedundantCallDetector(threshold int, logger *utils.Logger) *RedundantCallDetector {
	if threshold <= 0 {
		threshold = 3
	}
	return &RedundantCallDetector{
		counts:    make(map[string]int),
		warned:    make(map[string]bool),
		threshold: threshold,
		logger:    utils.OrDiscard(logger).WithComponent("detector"),
	}
}

// RecordCall registers one observation of a tool call. Once the same
// signature has been seen threshold times, exactly one warning is logged;
// further observations never re-warn.
func (d *RedundantCallDetector) RecordCall(toolName, callKey string) {
	sig := signature(toolName, callKey)

	d.mu.Lock()
	d.counts[sig]++
	count := d.counts[sig]
	shouldWarn := count >= d.threshold && !d.warned[sig]
	if shouldWarn {
		d.warned[sig] = true
	}
	d.mu.Unlock()

	if shouldWarn {
		d.logger.Warn("tool %s called %d times with identical arguments; consider caching", toolName, count)
	}
}

// Count returns how many times a call signature has been observed.
func (d *RedundantCallDetector) Count(toolName, callKey string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counts[signature(toolName, callKey)]
}

// Warned reports whether a signature has already triggered its warning.
func (d *RedundantCallDetector) Warned(toolName, callKey string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.warned[signature(toolName, callKey)]
}

// Reset clears all observation history.
func (d *RedundantCallDetector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counts = make(map[string]int)
	d.warned = make(map[string]bool)
}
