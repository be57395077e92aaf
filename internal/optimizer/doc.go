/*
Package optimizer deduplicates and caches expensive tool invocations.

A ToolOptimizer sits between the caller and an arbitrary tool function.
Each invocation is reduced to a call key, a sha256 hash of the tool name
and its canonicalized arguments; keyword ordering never changes the key.
InvokeCached consults the cache manager's tool namespace before calling
through, so repeated identical invocations within the TTL cost one real
call. InvokeDeduped skips the cache but keeps the profiling and redundancy
accounting, for tools whose results are not worth storing.

The RedundantCallDetector watches the same call keys and logs a single
warning per signature once it has been repeated past the threshold, which
surfaces candidates for caching without changing behavior.

Arguments that cannot be serialized hash through a lossy string fallback;
that keeps keying total at the cost of possible collisions between values
with identical formatting, which is acceptable for a cache key and is
logged at debug level for visibility.
*/
package optimizer
