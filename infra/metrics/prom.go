package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/optimanage/core/metrics"
)

// PromSink records ranking results in Prometheus metrics. Counters owned by
// the dispatcher itself are registered by core/dispatch.
type PromSink struct {
	entries  prometheus.Gauge
	topScore prometheus.Gauge
	partial  prometheus.Counter
	runs     *prometheus.HistogramVec
}

// NewPromSink registers ranking metrics on the default Prometheus registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	s, err := NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	entries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimanage_ranking_entries",
		Help: "Number of workflow instances in the latest ranking",
	})
	top := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "optimanage_ranking_top_score",
		Help: "Aggregate score of the best ranked workflow instance",
	})
	partial := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "optimanage_partial_rankings_total",
		Help: "Rankings produced while at least one objective failed",
	})
	runs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimanage_objective_run_seconds",
		Help:    "Time spent training and scoring an objective",
		Buckets: prometheus.DefBuckets,
	}, []string{"objective", "success"})

	var err error
	if entries, err = register(reg, entries); err != nil {
		return nil, err
	}
	if top, err = register(reg, top); err != nil {
		return nil, err
	}
	if partial, err = register(reg, partial); err != nil {
		return nil, err
	}
	if runs, err = register(reg, runs); err != nil {
		return nil, err
	}
	return &PromSink{entries: entries, topScore: top, partial: partial, runs: runs}, nil
}

// register returns the already registered collector when c was registered
// before, so several sinks can share a registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRanking sets the ranking gauges.
func (s *PromSink) RecordRanking(ev coremetrics.RankingEvent) error {
	s.entries.Set(float64(ev.Entries))
	s.topScore.Set(ev.TopScore)
	if ev.Errors > 0 {
		s.partial.Inc()
	}
	return nil
}

// RecordObjectiveRun observes the objective run duration.
func (s *PromSink) RecordObjectiveRun(ev coremetrics.ObjectiveRunEvent) error {
	s.runs.WithLabelValues(ev.ObjectiveID, strconv.FormatBool(ev.Success)).Observe(ev.Duration.Seconds())
	return nil
}
