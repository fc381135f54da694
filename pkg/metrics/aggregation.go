package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recompute outcomes.
const (
	ResultOK        = "ok"
	ResultConflict  = "conflict"
	ResultExhausted = "exhausted"
	ResultError     = "error"
)

// AggregationMetrics instruments order total recomputation.
type AggregationMetrics struct {
	duration  prometheus.Histogram
	results   *prometheus.CounterVec
	conflicts prometheus.Counter
}

// NewAggregationMetrics registers the aggregation collectors on reg.
func NewAggregationMetrics(reg prometheus.Registerer) *AggregationMetrics {
	if reg == nil {
		return &AggregationMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "aggregation",
		Name:      "recompute_duration_seconds",
		Help:      "Time spent recomputing an order total, retries included.",
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	})
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "aggregation",
		Name:      "recompute_total",
		Help:      "Order total recomputations by outcome.",
	}, []string{"result"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "aggregation",
		Name:      "conflicts_total",
		Help:      "Optimistic version checks that lost to a concurrent writer.",
	})
	reg.MustRegister(duration, results, conflicts)
	return &AggregationMetrics{
		duration:  duration,
		results:   results,
		conflicts: conflicts,
	}
}

// ObserveRecompute records one finished recompute and its outcome.
func (a *AggregationMetrics) ObserveRecompute(result string, elapsed time.Duration) {
	if a == nil || a.duration == nil {
		return
	}
	a.duration.Observe(elapsed.Seconds())
	a.results.WithLabelValues(normalizeLabel(result)).Inc()
}

// IncConflict counts a lost version check.
func (a *AggregationMetrics) IncConflict() {
	if a == nil || a.conflicts == nil {
		return
	}
	a.conflicts.Inc()
}
