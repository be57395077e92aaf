// Package agentperf wires the performance optimization layer together:
// namespaced TTL caches, a bounded parallel executor, a section profiler,
// the tool invocation optimizer, and the cache-aside memory manager, with
// optional Prometheus export.
package agentperf

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/agentperf/agentperf/internal/cache"
	"github.com/agentperf/agentperf/internal/config"
	"github.com/agentperf/agentperf/internal/executor"
	"github.com/agentperf/agentperf/internal/memory"
	"github.com/agentperf/agentperf/internal/metrics"
	"github.com/agentperf/agentperf/internal/optimizer"
	"github.com/agentperf/agentperf/internal/profile"
	s3store "github.com/agentperf/agentperf/internal/storage/s3"
	"github.com/agentperf/agentperf/pkg/types"
	"github.com/agentperf/agentperf/pkg/utils"
)

// System is the assembled optimization layer. Construct one per process
// and pass it by reference to every consumer.
type System struct {
	Caches    *cache.Manager
	Executor  *executor.Parallel
	Async     *executor.Async
	Profiler  *profile.Profiler
	Optimizer *optimizer.ToolOptimizer
	Detector  *optimizer.RedundantCallDetector
	Memory    *memory.Manager
	Prefetch  *memory.PrefetchManager
	Metrics   *metrics.Exporter

	config *config.Configuration
	logger *utils.Logger
}

// New builds a System from the given configuration. A nil configuration
// uses defaults. The store backend comes from config; the metrics server
// is created but not started, call StartMetrics for the HTTP endpoint.
func New(ctx context.Context, cfg *config.Configuration) (*System, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := utils.ParseLogLevel(cfg.Global.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := utils.NewLogger(level, os.Stderr)

	exporter, err := metrics.NewExporter(&cfg.Metrics, logger)
	if err != nil {
		return nil, err
	}

	caches := cache.NewManager(&cfg.Cache, logger)
	caches.SetObserver(exporter)

	profiler := profile.New()
	profiler.SetEnabled(cfg.Profiler.Enabled)
	profiler.SetObserver(exporter)

	parallel := executor.NewParallel(&cfg.Executor, logger)
	async := executor.NewAsync(parallel, logger)

	detector := optimizer.NewRedundantCallDetector(cfg.Optimizer.WarningThreshold, logger)
	toolOpt := optimizer.NewToolOptimizer(caches, profiler, detector, logger)

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	mem := memory.NewManager(store, caches, logger)
	prefetch := memory.NewPrefetchManager(mem, &cfg.Prefetch, logger)

	return &System{
		Caches:    caches,
		Executor:  parallel,
		Async:     async,
		Profiler:  profiler,
		Optimizer: toolOpt,
		Detector:  detector,
		Memory:    mem,
		Prefetch:  prefetch,
		Metrics:   exporter,
		config:    cfg,
		logger:    logger,
	}, nil
}

func newStore(ctx context.Context, cfg *config.Configuration, logger *utils.Logger) (types.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendS3:
		return s3store.NewStore(ctx, &cfg.Store.S3, logger)
	default:
		return memory.NewMemStore(), nil
	}
}

// RunParallel executes the batch through the bounded pool and records one
// task metric per result.
func (s *System) RunParallel(ctx context.Context, tasks []executor.Task, timeout time.Duration) ([]executor.Result, error) {
	results, err := s.Executor.RunParallel(ctx, tasks, timeout)
	for _, r := range results {
		s.Metrics.RecordTask(r.Err == nil, r.Duration)
	}
	return results, err
}

// RunSpecialists fans the shared context out to every named specialist.
func (s *System) RunSpecialists(ctx context.Context, specialists map[string]executor.SpecialistFunc, shared interface{}, timeout time.Duration) (map[string]executor.Result, error) {
	results, err := s.Executor.RunSpecialists(ctx, specialists, shared, timeout)
	for _, r := range results {
		s.Metrics.RecordTask(r.Err == nil, r.Duration)
	}
	return results, err
}

// PublishStats pushes current cache statistics to the metrics exporter.
func (s *System) PublishStats() {
	s.Metrics.PublishCacheStats(s.Caches.AllStats())
}

// StartMetrics serves the Prometheus endpoint when metrics are enabled.
func (s *System) StartMetrics(ctx context.Context) error {
	return s.Metrics.Start(ctx)
}

// StopMetrics shuts the metrics endpoint down.
func (s *System) StopMetrics(ctx context.Context) error {
	return s.Metrics.Stop(ctx)
}

// Report returns the profiler's deterministic text report.
func (s *System) Report() string {
	return s.Profiler.Report()
}
