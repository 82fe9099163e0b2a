package dispatch

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestMetricsRegistration(t *testing.T) {
	ResetMetrics(nil)
	t.Cleanup(func() { ResetMetrics(nil) })
	reg := prometheus.NewRegistry()
	MustRegisterMetrics(reg)
	// touch metrics so they are exported
	rankingsTotal.Inc()
	rankingDuration.Observe(0.1)
	objectiveRuns.WithLabelValues("o", "ok").Inc()
	partitionRecords.WithLabelValues("o", "training").Set(3)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := map[string]bool{}
	for _, mf := range mfs {
		names[*mf.Name] = true
	}
	expected := []string{
		"optimanage_rankings_total",
		"optimanage_ranking_duration_seconds",
		"optimanage_objective_runs_total",
		"optimanage_partition_records",
	}
	for _, n := range expected {
		if !names[n] {
			t.Errorf("metric %s not registered", n)
		}
	}
}
