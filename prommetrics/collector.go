// Package prommetrics exposes dynvec storage metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	mc := prommetrics.NewCollector(reg, "myapp")
//	v := dynvec.New[int](dynvec.WithMetricsCollector(mc))
package prommetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/dynvec"
)

// Collector implements dynvec.MetricsCollector with Prometheus metrics.
type Collector struct {
	allocations      prometheus.Counter
	allocationErrors prometheus.Counter
	allocatedBytes   prometheus.Counter
	releasedBytes    prometheus.Counter
	reallocations    *prometheus.CounterVec
	reallocDuration  prometheus.Histogram
	rollbacks        *prometheus.CounterVec
	failures         *prometheus.CounterVec
}

var _ dynvec.MetricsCollector = (*Collector)(nil)

// NewCollector registers the metrics with r. namespace prefixes every
// metric name and may be empty.
func NewCollector(r prometheus.Registerer, namespace string) *Collector {
	return &Collector{
		allocations: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dynvec_block_allocations_total",
			Help:      "Total number of raw blocks allocated.",
		}),
		allocationErrors: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dynvec_block_allocation_failures_total",
			Help:      "Total number of refused block allocations.",
		}),
		allocatedBytes: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dynvec_allocated_bytes_total",
			Help:      "Total bytes of raw blocks allocated.",
		}),
		releasedBytes: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dynvec_released_bytes_total",
			Help:      "Total bytes of raw blocks released.",
		}),
		reallocations: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dynvec_reallocations_total",
			Help:      "Total number of element transfers into a new block.",
		}, []string{"strategy"}),
		reallocDuration: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dynvec_reallocation_duration_seconds",
			Help:      "Time taken to transfer elements into a new block.",

			Buckets:                         prometheus.ExponentialBuckets(1e-6, 4, 10),
			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: 0,
		}),
		rollbacks: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dynvec_rollbacks_total",
			Help:      "Total number of operations that failed and restored the previous state.",
		}, []string{"op"}),
		failures: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dynvec_partial_failures_total",
			Help:      "Total number of operations that failed and left the array modified.",
		}, []string{"op"}),
	}
}

// RecordAllocation implements dynvec.MetricsCollector.
func (c *Collector) RecordAllocation(_ int, bytes int64, err error) {
	if err != nil {
		c.allocationErrors.Inc()
		return
	}
	c.allocations.Inc()
	c.allocatedBytes.Add(float64(bytes))
}

// RecordRelease implements dynvec.MetricsCollector.
func (c *Collector) RecordRelease(bytes int64) {
	c.releasedBytes.Add(float64(bytes))
}

// RecordReallocation implements dynvec.MetricsCollector.
func (c *Collector) RecordReallocation(_, _ int, strategy dynvec.Strategy, duration time.Duration) {
	c.reallocations.WithLabelValues(strategy.String()).Inc()
	c.reallocDuration.Observe(duration.Seconds())
}

// RecordRollback implements dynvec.MetricsCollector.
func (c *Collector) RecordRollback(op string, _ error) {
	c.rollbacks.WithLabelValues(op).Inc()
}

// RecordFailure implements dynvec.MetricsCollector.
func (c *Collector) RecordFailure(op string, _ error) {
	c.failures.WithLabelValues(op).Inc()
}
