package profile

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agentperf/agentperf/pkg/types"
)

// Observer receives every recorded sample, for forwarding to an external
// metrics sink. Implementations must be safe for concurrent use.
type Observer interface {
	ObserveSection(name string, d time.Duration)
}

// Profiler accumulates named timing sections. Recording is cheap (one map
// append under a mutex) and can be disabled globally without touching call
// sites, so instrumentation can stay in production code.
type Profiler struct {
	mu       sync.Mutex
	sections map[string][]time.Duration
	enabled  bool
	observer Observer

	// now/since are the clock hooks; overridable in tests.
	now   func() time.Time
	since func(time.Time) time.Duration
}

// New creates an enabled profiler.
func New() *Profiler {
	return &Profiler{
		sections: make(map[string][]time.Duration),
		enabled:  true,
		now:      time.Now,
		since:    time.Since,
	}
}

// SetEnabled flips recording on or off. When disabled, Section and Record
// become no-ops; existing samples are kept.
func (p *Profiler) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// Enabled reports whether recording is active.
func (p *Profiler) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// SetObserver forwards all future samples to the given sink as well.
func (p *Profiler) SetObserver(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = observer
}

// Section starts timing a named section and returns the stop function.
// Deferring the stop function guarantees exactly one sample is recorded on
// every exit path, panics included:
//
//	defer profiler.Section("tool.search")()
func (p *Profiler) Section(name string) func() {
	if !p.Enabled() {
		return func() {}
	}
	start := p.now()
	return func() {
		p.Record(name, p.since(start))
	}
}

// Record injects one duration sample directly, for call sites that measure
// on their own.
func (p *Profiler) Record(name string, d time.Duration) {
	p.mu.Lock()
	if !p.enabled {
		p.mu.Unlock()
		return
	}
	p.sections[name] = append(p.sections[name], d)
	observer := p.observer
	p.mu.Unlock()

	if observer != nil {
		observer.ObserveSection(name, d)
	}
}

// Summary returns per-section aggregate statistics derived from the stored
// samples. It never mutates profiler state.
func (p *Profiler) Summary() map[string]types.SectionStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary := make(map[string]types.SectionStats, len(p.sections))
	for name, samples := range p.sections {
		summary[name] = aggregate(samples)
	}
	return summary
}

// TopSlowest returns up to n section names ranked by average duration,
// slowest first. Ties break alphabetically so the order is deterministic.
func (p *Profiler) TopSlowest(n int) []string {
	summary := p.Summary()

	names := make([]string, 0, len(summary))
	for name := range summary {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := summary[names[i]], summary[names[j]]
		if a.Avg != b.Avg {
			return a.Avg > b.Avg
		}
		return names[i] < names[j]
	})

	if n < len(names) {
		names = names[:n]
	}
	return names
}

// Reset discards all samples.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sections = make(map[string][]time.Duration)
}

// Report renders a deterministic human-readable summary: overall totals, a
// table sorted by total time descending, and the top five sections by
// average duration.
func (p *Profiler) Report() string {
	summary := p.Summary()

	var totalOps int
	var totalTime time.Duration
	names := make([]string, 0, len(summary))
	for name, stats := range summary {
		names = append(names, name)
		totalOps += stats.Count
		totalTime += stats.Total
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := summary[names[i]], summary[names[j]]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return names[i] < names[j]
	})

	var b strings.Builder
	b.WriteString("Performance Report\n")
	b.WriteString("==================\n\n")
	fmt.Fprintf(&b, "Total operations: %d\n", totalOps)
	fmt.Fprintf(&b, "Total time: %v\n\n", totalTime)

	if len(names) == 0 {
		b.WriteString("No sections recorded.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-30s %8s %12s %12s %12s %12s\n",
		"Section", "Count", "Total", "Avg", "Min", "Max")
	fmt.Fprintf(&b, "%-30s %8s %12s %12s %12s %12s\n",
		"-------", "-----", "-----", "---", "---", "---")
	for _, name := range names {
		s := summary[name]
		fmt.Fprintf(&b, "%-30s %8d %12v %12v %12v %12v\n",
			name, s.Count, s.Total, s.Avg, s.Min, s.Max)
	}

	b.WriteString("\nTop 5 by average duration:\n")
	for i, name := range p.TopSlowest(5) {
		fmt.Fprintf(&b, "  %d. %s (%v avg over %d calls)\n",
			i+1, name, summary[name].Avg, summary[name].Count)
	}

	return b.String()
}

func aggregate(samples []time.Duration) types.SectionStats {
	stats := types.SectionStats{Count: len(samples)}
	if len(samples) == 0 {
		return stats
	}

	stats.Min = samples[0]
	stats.Max = samples[0]
	for _, d := range samples {
		stats.Total += d
		if d < stats.Min {
			stats.Min = d
		}
		if d > stats.Max {
			stats.Max = d
		}
	}
	stats.Avg = stats.Total / time.Duration(len(samples))
	return stats
}
