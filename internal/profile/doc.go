/*
Package profile provides scoped timing instrumentation for the
optimization layer.

A Profiler accumulates duration samples per named section. The primary API
is scoped acquisition:

	defer profiler.Section("cache.get")()

which records exactly one sample on every exit path, including panics.
Aggregates (count, total, average, min, max) are derived from the raw
samples on demand; nothing is stored redundantly. A single enabled flag
turns all recording into a no-op so instrumented call sites can ship to
production unchanged.

Samples can be forwarded to an Observer, which the metrics package
implements to publish Prometheus histograms without the profiler knowing
about Prometheus.
*/
package profile
