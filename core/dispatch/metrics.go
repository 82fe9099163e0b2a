package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	rankingsTotal    prometheus.Counter
	rankingDuration  prometheus.Histogram
	objectiveRuns    *prometheus.CounterVec
	partitionRecords *prometheus.GaugeVec
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, prometheus.Histogram, *prometheus.CounterVec, *prometheus.GaugeVec) {
	total := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "optimanage_rankings_total",
			Help: "Number of rankings produced",
		},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "optimanage_ranking_duration_seconds",
			Help:    "Time spent producing a ranking",
			Buckets: prometheus.DefBuckets,
		},
	)
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "optimanage_objective_runs_total",
			Help: "Objective executions by outcome",
		},
		[]string{"objective", "result"},
	)
	parts := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "optimanage_partition_records",
			Help: "Records in the cached partition of each objective",
		},
		[]string{"objective", "set"},
	)
	return total, dur, runs, parts
}

func init() {
	rankingsTotal, rankingDuration, objectiveRuns, partitionRecords = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(rankingsTotal, rankingDuration, objectiveRuns, partitionRecords)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	rankingsTotal, rankingDuration, objectiveRuns, partitionRecords = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
