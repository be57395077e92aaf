package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentperf/agentperf/pkg/utils"
)

// Async adapts the batch execution model for callers that must not block:
// submission returns immediately with a one-shot result channel, and the
// work runs on its own goroutine. It carries the same Result shape and the
// same isolation guarantee as Parallel, which it delegates to for batches.
type Async struct {
	parallel *Parallel
	logger   *utils.Logger
}

// Submission is a pending asynchronous task.
type Submission struct {
	// ID uniquely identifies this submission for log correlation.
	ID string

	// Done receives exactly one Result and is then closed. The channel is
	// buffered, so an abandoned Submission never blocks the worker.
	Done <-chan Result
}

// NewAsync creates an async executor sharing the given parallel executor's
// worker bound. A nil parallel executor gets a default one.
func NewAsync(parallel *Parallel, logger *utils.Logger) *Async {
	if parallel == nil {
		parallel = NewParallel(nil, logger)
	}
	return &Async{
		parallel: parallel,
		logger:   utils.OrDiscard(logger).WithComponent("async"),
	}
}

// Submit schedules one task and returns without waiting for it. The result
// arrives on the Submission's Done channel; an error inside the task is
// delivered there, never panicked or dropped.
func (a *Async) Submit(ctx context.Context, name string, fn TaskFunc) Submission {
	id := uuid.New().String()[:8]
	done := make(chan Result, 1)

	go func() {
		defer close(done)

		if err := a.parallel.sem.Acquire(ctx, 1); err != nil {
			done <- Result{Name: name, Err: fmt.Errorf("task not started: %w", err)}
			return
		}
		defer a.parallel.sem.Release(1)

		start := time.Now()
		result := a.parallel.runOne(ctx, Task{Name: name, Fn: fn})
		a.logger.Debug("submission %s (%s) finished in %v", id, name, time.Since(start))
		done <- result
	}()

	return Submission{ID: id, Done: done}
}

// SubmitAll schedules every task and streams results in completion order.
// The returned channel is closed after the last result. Failures travel
// inline as Result.Err; one task failing never stops the others.
func (a *Async) SubmitAll(ctx context.Context, tasks []Task) <-chan Result {
	out := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for _, task := range tasks {
		sub := a.Submit(ctx, task.Name, task.Fn)
		wg.Add(1)
		go func(sub Submission) {
			defer wg.Done()
			if r, ok := <-sub.Done; ok {
				out <- r
			}
		}(sub)
	}

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

// Gather runs the batch asynchronously but returns results in submission
// order once every task has finished, honoring the timeout the same way
// RunParallel does.
func (a *Async) Gather(ctx context.Context, tasks []Task, timeout time.Duration) ([]Result, error) {
	return a.parallel.RunParallel(ctx, tasks, timeout)
}
