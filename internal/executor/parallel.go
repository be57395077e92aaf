package executor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/agentperf/agentperf/pkg/utils"
)

// ErrBatchTimeout is returned when a whole batch exceeds its deadline.
// Results completed before the deadline are still returned alongside it.
var ErrBatchTimeout = errors.New("batch execution timed out")

// TaskFunc is a single unit of work. The context carries the batch
// deadline; cooperative tasks should honor it.
type TaskFunc func(ctx context.Context) (interface{}, error)

// SpecialistFunc is a unit of work that receives the shared context value
// fanned out to every specialist in a batch.
type SpecialistFunc func(ctx context.Context, shared interface{}) (interface{}, error)

// Task pairs a name with the work to run.
type Task struct {
	Name string
	Fn   TaskFunc
}

// Result is the outcome of one task. Exactly one of Value and Err is set;
// Duration is the task's own wall-clock time, not the batch's.
type Result struct {
	Name     string        `json:"name"`
	Value    interface{}   `json:"value,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Parallel runs batches of independent tasks across a bounded worker pool.
// One task's failure never affects its siblings: errors and panics are
// captured into the task's Result and the rest of the batch proceeds.
type Parallel struct {
	config *Config
	sem    *semaphore.Weighted
	logger *utils.Logger
}

// Config represents executor configuration.
type Config struct {
	// MaxWorkers bounds how many tasks run at once. Zero means 4.
	MaxWorkers int `yaml:"max_workers"`

	// DefaultTimeout applies when a batch call passes a zero timeout.
	// Zero means no deadline.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// NewParallel creates a parallel executor. A nil config gets defaults.
func NewParallel(config *Config, logger *utils.Logger) *Parallel {
	if config == nil {
		config = &Config{}
	}
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 4
	}

	return &Parallel{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxWorkers)),
		logger: utils.OrDiscard(logger).WithComponent("executor"),
	}
}

// RunParallel executes the batch and returns one Result per task, in
// submission order. When the timeout elapses first, it returns the results
// collected so far together with ErrBatchTimeout.
//
// Deadline policy: the batch deadline is propagated into every task's
// context, so tasks that honor cancellation stop promptly. A task that
// ignores its context keeps its goroutine until it returns on its own; the
// call does not wait for it past the deadline, and its late result is
// discarded. This trades a bounded temporary goroutine for a bounded wait.
func (p *Parallel) RunParallel(ctx context.Context, tasks []Task, timeout time.Duration) ([]Result, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	ctx, cancel := p.withDeadline(ctx, timeout)
	defer cancel()

	type indexed struct {
		index  int
		result Result
	}
	resultCh := make(chan indexed, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		// Acquire respects the deadline, so a batch that times out while
		// queued still reports every unstarted task.
		if err := p.sem.Acquire(ctx, 1); err != nil {
			resultCh <- indexed{i, Result{Name: task.Name, Err: fmt.Errorf("task not started: %w", err)}}
			continue
		}

		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()
			defer p.sem.Release(1)
			resultCh <- indexed{i, p.runOne(ctx, task)}
		}(i, task)
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, len(tasks))
	done := make([]bool, len(tasks))
	seen := 0
	for seen < len(tasks) {
		select {
		case r := <-resultCh:
			results[r.index] = r.result
			done[r.index] = true
			seen++
		case <-ctx.Done():
			// Drain results that finished just before the deadline so they
			// are not misreported as unfinished.
		drain:
			for {
				select {
				case r, ok := <-resultCh:
					if !ok {
						break drain
					}
					results[r.index] = r.result
					done[r.index] = true
					seen++
				default:
					break drain
				}
			}
			p.fillUnfinished(results, done, tasks, ctx.Err())
			return results, fmt.Errorf("%w after %d/%d tasks", ErrBatchTimeout, seen, len(tasks))
		}
	}

	return results, nil
}

// RunMap applies fn to every item concurrently, with the same semantics as
// RunParallel.
func (p *Parallel) RunMap(ctx context.Context, fn func(ctx context.Context, item interface{}) (interface{}, error), items []interface{}, timeout time.Duration) ([]Result, error) {
	tasks := make([]Task, len(items))
	for i, item := range items {
		item := item
		tasks[i] = Task{
			Name: fmt.Sprintf("item-%d", i),
			Fn: func(ctx context.Context) (interface{}, error) {
				return fn(ctx, item)
			},
		}
	}
	return p.RunParallel(ctx, tasks, timeout)
}

// RunSpecialists fans the same shared context value out to every named
// function and returns results keyed by name. Partial failure is ordinary:
// callers inspect each Result's Err individually.
func (p *Parallel) RunSpecialists(ctx context.Context, specialists map[string]SpecialistFunc, shared interface{}, timeout time.Duration) (map[string]Result, error) {
	names := make([]string, 0, len(specialists))
	for name := range specialists {
		names = append(names, name)
	}
	sort.Strings(names)

	tasks := make([]Task, len(names))
	for i, name := range names {
		fn := specialists[name]
		tasks[i] = Task{
			Name: name,
			Fn: func(ctx context.Context) (interface{}, error) {
				return fn(ctx, shared)
			},
		}
	}

	results, err := p.RunParallel(ctx, tasks, timeout)
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	return byName, err
}

// MaxWorkers reports the pool bound.
func (p *Parallel) MaxWorkers() int {
	return p.config.MaxWorkers
}

// Helper methods

// runOne executes a single task, timing it and converting errors and
// panics into the Result.
func (p *Parallel) runOne(ctx context.Context, task Task) (result Result) {
	result.Name = task.Name
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)
		if r := recover(); r != nil {
			result.Value = nil
			result.Err = fmt.Errorf("task %s panicked: %v", task.Name, r)
			p.logger.Warn("recovered panic in task %s: %v", task.Name, r)
		}
	}()

	value, err := task.Fn(ctx)
	if err != nil {
		result.Err = err
		return result
	}
	result.Value = value
	return result
}

func (p *Parallel) withDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = p.config.DefaultTimeout
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// fillUnfinished stamps a timeout error onto every slot that has no result
// yet, so the caller always receives a complete, inspectable batch.
func (p *Parallel) fillUnfinished(results []Result, done []bool, tasks []Task, cause error) {
	for i := range results {
		if !done[i] {
			results[i] = Result{
				Name: tasks[i].Name,
				Err:  fmt.Errorf("task unfinished at deadline: %w", cause),
			}
		}
	}
}
