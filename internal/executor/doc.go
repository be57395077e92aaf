/*
Package executor runs batches of independent tasks with bounded parallelism
and per-task failure isolation.

Two front ends share one worker budget:

Parallel is the synchronous entry point: RunParallel submits every task to a
weighted-semaphore-bounded pool, times each one independently, and returns a
complete slice of Results in submission order. RunSpecialists fans one
shared context value out to a map of named functions and keys the results
by name. Partial success is the normal case; callers inspect each Result's
Err rather than handling a batch-level exception.

Async is the non-blocking front end: Submit returns immediately with a
one-shot buffered channel, and SubmitAll streams a batch's results in
completion order. Both delegate the actual execution (and the isolation and
panic-capture behavior) to the same code path Parallel uses.

# Deadlines

A batch timeout becomes a context deadline propagated into every task, so
cooperative tasks cancel promptly. Tasks that ignore their context are
abandoned at the deadline: the batch call returns ErrBatchTimeout with the
finished results intact and timeout errors stamped on the rest, while the
runaway goroutine is left to finish on its own. Un-joined goroutines are a
real cost, so long-running task bodies should check ctx.Done().
*/
package executor
