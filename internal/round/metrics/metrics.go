package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the allocation and draw paths.
type Metrics struct {
	AllocationsTotal    *prometheus.CounterVec
	AllocationDuration  prometheus.Histogram
	CapacityRejections  prometheus.Counter
	OptimisticConflicts prometheus.Counter
	DrawsTotal          prometheus.Counter
	DrawFailuresTotal   *prometheus.CounterVec
	DrawDuration        prometheus.Histogram
	RoundsFrozenTotal   prometheus.Counter
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		AllocationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "drawcore_allocations_total",
			Help: "Share allocations by funding source and result",
		}, []string{"funding", "result"}),
		AllocationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "drawcore_allocation_duration_seconds",
			Help:    "Wall time of the allocate transaction",
			Buckets: prometheus.DefBuckets,
		}),
		CapacityRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "drawcore_capacity_rejections_total",
			Help: "Allocations rejected because the round lacked capacity",
		}),
		OptimisticConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "drawcore_optimistic_conflicts_total",
			Help: "Allocations lost to a concurrent ledger modification",
		}),
		DrawsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "drawcore_draws_total",
			Help: "Rounds drawn",
		}),
		DrawFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "drawcore_draw_failures_total",
			Help: "Draw attempts that failed, by reason",
		}, []string{"reason"}),
		DrawDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "drawcore_draw_duration_seconds",
			Help:    "Wall time of the draw transaction",
			Buckets: prometheus.DefBuckets,
		}),
		RoundsFrozenTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "drawcore_rounds_frozen_total",
			Help: "Rounds frozen after a detected invariant violation",
		}),
	}
}

// ObserveAllocation records one allocation attempt.
func (m *Metrics) ObserveAllocation(funding, result string, seconds float64) {
	if m == nil {
		return
	}
	m.AllocationsTotal.WithLabelValues(funding, result).Inc()
	m.AllocationDuration.Observe(seconds)
}

// IncCapacityRejection counts a capacity rejection.
func (m *Metrics) IncCapacityRejection() {
	if m == nil {
		return
	}
	m.CapacityRejections.Inc()
}

// IncOptimisticConflict counts a lost optimistic-lock race.
func (m *Metrics) IncOptimisticConflict() {
	if m == nil {
		return
	}
	m.OptimisticConflicts.Inc()
}

// ObserveDraw records one completed draw.
func (m *Metrics) ObserveDraw(seconds float64) {
	if m == nil {
		return
	}
	m.DrawsTotal.Inc()
	m.DrawDuration.Observe(seconds)
}

// IncDrawFailure counts a failed draw attempt.
func (m *Metrics) IncDrawFailure(reason string) {
	if m == nil {
		return
	}
	m.DrawFailuresTotal.WithLabelValues(reason).Inc()
}

// IncRoundFrozen counts a round freeze.
func (m *Metrics) IncRoundFrozen() {
	if m == nil {
		return
	}
	m.RoundsFrozenTotal.Inc()
}
