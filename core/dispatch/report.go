package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/optimanage/core/events"
	"github.com/kilianp07/optimanage/core/metrics"
	"github.com/kilianp07/optimanage/core/monitoring"
	"github.com/kilianp07/optimanage/internal/eventbus"
)

func (d *Dispatcher) observers() (metrics.MetricsSink, *eventbus.TypedBus[events.Event], monitoring.Monitor) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.metrics, d.bus, d.monitor
}

func (d *Dispatcher) recordPartition(id string, p Partition, token string) {
	partitionRecords.WithLabelValues(id, "training").Set(float64(len(p.Training)))
	partitionRecords.WithLabelValues(id, "candidates").Set(float64(len(p.Candidates)))
	sink, bus, _ := d.observers()
	if rec, ok := sink.(metrics.PartitionRecorder); ok {
		if err := rec.RecordPartition(metrics.PartitionEvent{
			ObjectiveID: id,
			Training:    len(p.Training),
			Candidates:  len(p.Candidates),
			Time:        d.now(),
		}); err != nil {
			d.logger.Warnf("record partition metrics: %v", err)
		}
	}
	if bus != nil {
		bus.Publish(events.PartitionEvent{
			ObjectiveID: id,
			Training:    len(p.Training),
			Candidates:  len(p.Candidates),
			Token:       token,
		})
	}
}

func (d *Dispatcher) recordRun(id string, training, candidates, scored int, dur time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	objectiveRuns.WithLabelValues(id, result).Inc()
	sink, bus, mon := d.observers()
	if rec, ok := sink.(metrics.ObjectiveRunRecorder); ok {
		if merr := rec.RecordObjectiveRun(metrics.ObjectiveRunEvent{
			ObjectiveID: id,
			Training:    training,
			Candidates:  candidates,
			Scored:      scored,
			Success:     err == nil,
			Duration:    dur,
			Time:        d.now(),
		}); merr != nil {
			d.logger.Warnf("record objective run metrics: %v", merr)
		}
	}
	if bus != nil {
		bus.Publish(events.ObjectiveRunEvent{ObjectiveID: id, Scored: scored, Duration: dur, Err: err})
	}
	if err == nil {
		d.logger.Debugw("objective run", map[string]any{
			"objective":  id,
			"training":   training,
			"candidates": candidates,
			"scored":     scored,
			"duration":   dur.String(),
		})
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	d.logger.Errorf("objective %s failed: %v", id, err)
	stage := ""
	var execErr *ObjectiveExecutionError
	if errors.As(err, &execErr) {
		stage = execErr.Stage
	}
	mon.CaptureException(err, monitoring.ObjectiveTags(id, stage))
}

func (d *Dispatcher) recordRanking(r Ranking, objectives int, dur time.Duration) {
	rankingsTotal.Inc()
	rankingDuration.Observe(dur.Seconds())
	sink, bus, _ := d.observers()
	top := 0.0
	if len(r.Entries) > 0 {
		top = r.Entries[0].Score
	}
	if err := sink.RecordRanking(metrics.RankingEvent{
		RankingID:  r.ID,
		Objectives: objectives,
		Entries:    len(r.Entries),
		Errors:     len(r.Errors),
		TopScore:   top,
		Duration:   dur,
		Time:       r.CreatedAt,
	}); err != nil {
		d.logger.Warnf("record ranking metrics: %v", err)
	}
	if bus != nil {
		bus.Publish(events.RankingEvent{RankingID: r.ID, Entries: len(r.Entries), Errors: len(r.Errors), Duration: dur})
	}
	fields := map[string]any{
		"ranking":    r.ID,
		"objectives": objectives,
		"entries":    len(r.Entries),
		"duration":   dur.String(),
	}
	if r.Partial() {
		fields["errors"] = r.ErrorMessages()
		d.logger.Warnf("ranking %s is partial: %d objective(s) failed", r.ID, len(r.Errors))
	}
	d.logger.Infow("ranking produced", fields)
}
