package dynvec

import (
	"log/slog"
)

// MemoryBudget reserves memory before a block is allocated.
// *resource.Controller implements it.
type MemoryBudget interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	budget           MemoryBudget
}

// Option configures a Vector.
//
// Clones inherit the options of their source.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for allocation and
// reallocation events. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &dynvec.BasicMetricsCollector{}
//	v := dynvec.New[int](dynvec.WithMetricsCollector(metrics))
//	// ... use v ...
//	stats := metrics.GetStats()
//	fmt.Printf("Reallocations: %d\n", stats.Reallocations)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging of reallocations and rollbacks.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := dynvec.NewJSONLogger(slog.LevelDebug)
//	v := dynvec.New[int](dynvec.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMemoryBudget makes every block allocation reserve its size from
// budget first. A refusal fails the operation with ErrOutOfMemory and
// leaves the array unchanged.
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 20})
//	v := dynvec.New[int](dynvec.WithMemoryBudget(rc))
func WithMemoryBudget(budget MemoryBudget) Option {
	return func(o *options) {
		o.budget = budget
	}
}

func applyOptions(optFns []Option) *options {
	o := &options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(o)
		}
	}
	return o
}
