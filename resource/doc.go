// Package resource implements a memory budget shared by dynamic arrays.
//
// Go's allocator does not return an error when memory runs out; it aborts
// the process. A Controller gives allocation a recoverable failure mode:
// every raw block asks the controller for its byte size before it is
// allocated, and a refusal surfaces as an out-of-memory error that the
// array rolls back from.
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic counters
// for usage tracking. AcquireMemory is non-blocking and returns immediately
// with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 64 << 20, // 64MB limit
//	})
//
//	v := dynvec.New[int](dynvec.WithMemoryBudget(rc))
//	if err := v.Reserve(1 << 30); errors.Is(err, dynvec.ErrOutOfMemory) {
//	    // v is unchanged
//	}
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use, so arrays owned by
// different goroutines may share one budget.
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
