package metrics

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentperf/agentperf/pkg/types"
	"github.com/agentperf/agentperf/pkg/utils"
)

// Exporter publishes cache, executor, and profiler statistics as
// Prometheus metrics, optionally serving them over HTTP. A disabled
// exporter is a safe no-op, so components can hold one unconditionally.
type Exporter struct {
	mu       sync.Mutex
	config   *Config
	registry *prometheus.Registry
	logger   *utils.Logger

	// lastEvictions tracks the previous snapshot per namespace so eviction
	// totals can be published as counter deltas.
	lastEvictions map[string]uint64

	// Prometheus metrics
	cacheRequests   *prometheus.CounterVec
	cacheEvictions  *prometheus.CounterVec
	cacheEntries    *prometheus.GaugeVec
	taskCounter     *prometheus.CounterVec
	taskDuration    prometheus.Histogram
	sectionDuration *prometheus.HistogramVec

	// HTTP server for the metrics endpoint
	server *http.Server
}

// Config represents metrics configuration.
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// DefaultConfig returns the default metrics configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:   true,
		Port:      9090,
		Path:      "/metrics",
		Namespace: "agentperf",
	}
}

// NewExporter creates a metrics exporter. A nil config gets defaults.
func NewExporter(config *Config, logger *utils.Logger) (*Exporter, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Path == "" {
		config.Path = "/metrics"
	}
	if config.Namespace == "" {
		config.Namespace = "agentperf"
	}

	e := &Exporter{
		config:        config,
		logger:        utils.OrDiscard(logger).WithComponent("metrics"),
		lastEvictions: make(map[string]uint64),
	}
	if !config.Enabled {
		return e, nil
	}

	e.registry = prometheus.NewRegistry()
	e.initMetrics()
	if err := e.registerMetrics(); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	return e, nil
}

// Start serves the metrics endpoint in the background. It returns
// immediately; Stop shuts the server down.
func (e *Exporter) Start(ctx context.Context) error {
	if !e.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(e.config.Path, promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	e.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", e.config.Port),
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.logger.Error("metrics server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts down the metrics endpoint.
func (e *Exporter) Stop(ctx context.Context) error {
	if e.server != nil {
		return e.server.Shutdown(ctx)
	}
	return nil
}

// RecordCacheHit counts one hit in the named namespace.
func (e *Exporter) RecordCacheHit(namespace string) {
	if !e.config.Enabled {
		return
	}
	e.cacheRequests.WithLabelValues(namespace, "hit").Inc()
}

// RecordCacheMiss counts one miss in the named namespace.
func (e *Exporter) RecordCacheMiss(namespace string) {
	if !e.config.Enabled {
		return
	}
	e.cacheRequests.WithLabelValues(namespace, "miss").Inc()
}

// PublishCacheStats updates the per-namespace gauges and eviction counters
// from a stats snapshot. Eviction totals are converted to deltas against
// the previous snapshot so the counter stays monotonic.
func (e *Exporter) PublishCacheStats(stats map[string]types.CacheStats) {
	if !e.config.Enabled {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for namespace, s := range stats {
		e.cacheEntries.WithLabelValues(namespace).Set(float64(s.Size))

		prev := e.lastEvictions[namespace]
		if s.Evictions >= prev {
			e.cacheEvictions.WithLabelValues(namespace).Add(float64(s.Evictions - prev))
		}
		e.lastEvictions[namespace] = s.Evictions
	}
}

// RecordTask counts one executed task and observes its duration.
func (e *Exporter) RecordTask(success bool, d time.Duration) {
	if !e.config.Enabled {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	e.taskCounter.WithLabelValues(status).Inc()
	e.taskDuration.Observe(d.Seconds())
}

// ObserveSection implements profile.Observer, forwarding profiler samples
// into the section duration histogram.
func (e *Exporter) ObserveSection(name string, d time.Duration) {
	if !e.config.Enabled {
		return
	}
	e.sectionDuration.WithLabelValues(name).Observe(d.Seconds())
}

// Registry exposes the underlying registry for callers that serve metrics
// through their own HTTP mux. Nil when the exporter is disabled.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Helper methods

func (e *Exporter) initMetrics() {
	ns := e.config.Namespace

	e.cacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_requests_total",
			Help:      "Total number of cache requests",
		},
		[]string{"namespace", "type"},
	)

	e.cacheEvictions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_evictions_total",
			Help:      "Total number of cache evictions",
		},
		[]string{"namespace"},
	)

	e.cacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "cache_entries",
			Help:      "Current number of live cache entries",
		},
		[]string{"namespace"},
	)

	e.taskCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: ns,
			Name:      "tasks_total",
			Help:      "Total number of executed tasks",
		},
		[]string{"status"},
	)

	e.taskDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "task_duration_seconds",
			Help:      "Duration of executed tasks in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
	)

	e.sectionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "section_duration_seconds",
			Help:      "Duration of profiled sections in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 12), // 100µs to ~7m
		},
		[]string{"section"},
	)
}

func (e *Exporter) registerMetrics() error {
	collectors := []prometheus.Collector{
		e.cacheRequests,
		e.cacheEvictions,
		e.cacheEntries,
		e.taskCounter,
		e.taskDuration,
		e.sectionDuration,
	}

	for _, c := range collectors {
		if err := e.registry.Register(c); err != nil {
			return err
		}
	}
	return nil
}
