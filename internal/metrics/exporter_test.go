package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentperf/agentperf/pkg/types"
)

func newTestExporter(t *testing.T) *Exporter {
	t.Helper()
	e, err := NewExporter(&Config{Enabled: true, Namespace: "test"}, nil)
	require.NoError(t, err)
	return e
}

func TestNewExporterDisabled(t *testing.T) {
	e, err := NewExporter(&Config{Enabled: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, e.Registry())

	// All recording paths must be safe no-ops when disabled.
	e.RecordCacheHit("profile")
	e.RecordCacheMiss("profile")
	e.RecordTask(true, time.Millisecond)
	e.ObserveSection("x", time.Millisecond)
	e.PublishCacheStats(map[string]types.CacheStats{"profile": {Size: 3}})
}

func TestRecordCacheHitMiss(t *testing.T) {
	e := newTestExporter(t)

	e.RecordCacheHit("profile")
	e.RecordCacheHit("profile")
	e.RecordCacheMiss("tool")

	hits := testutil.ToFloat64(e.cacheRequests.WithLabelValues("profile", "hit"))
	misses := testutil.ToFloat64(e.cacheRequests.WithLabelValues("tool", "miss"))
	assert.Equal(t, 2.0, hits)
	assert.Equal(t, 1.0, misses)
}

func TestPublishCacheStats(t *testing.T) {
	e := newTestExporter(t)

	e.PublishCacheStats(map[string]types.CacheStats{
		"profile": {Size: 7, Evictions: 2},
	})
	assert.Equal(t, 7.0, testutil.ToFloat64(e.cacheEntries.WithLabelValues("profile")))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.cacheEvictions.WithLabelValues("profile")))

	// A second snapshot publishes only the eviction delta.
	e.PublishCacheStats(map[string]types.CacheStats{
		"profile": {Size: 5, Evictions: 3},
	})
	assert.Equal(t, 5.0, testutil.ToFloat64(e.cacheEntries.WithLabelValues("profile")))
	assert.Equal(t, 3.0, testutil.ToFloat64(e.cacheEvictions.WithLabelValues("profile")))
}

func TestRecordTask(t *testing.T) {
	e := newTestExporter(t)

	e.RecordTask(true, 10*time.Millisecond)
	e.RecordTask(false, 20*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(e.taskCounter.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(e.taskCounter.WithLabelValues("error")))
}

func TestObserveSection(t *testing.T) {
	e := newTestExporter(t)

	e.ObserveSection("tool.search", 5*time.Millisecond)

	count := testutil.CollectAndCount(e.sectionDuration, "test_section_duration_seconds")
	assert.Equal(t, 1, count)
}
