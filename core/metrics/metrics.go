package metrics

import "time"

// RankingEvent summarises one ranking.
type RankingEvent struct {
	RankingID  string
	Objectives int
	Entries    int
	Errors     int
	TopScore   float64
	Duration   time.Duration
	Time       time.Time
}

// MetricsSink records rankings for observability purposes.
type MetricsSink interface {
	RecordRanking(ev RankingEvent) error
}

// ObjectiveRunEvent describes a single objective execution.
type ObjectiveRunEvent struct {
	ObjectiveID string
	Training    int
	Candidates  int
	Scored      int
	Success     bool
	Duration    time.Duration
	Time        time.Time
}

// ObjectiveRunRecorder is implemented by sinks able to record objective runs.
type ObjectiveRunRecorder interface {
	RecordObjectiveRun(ev ObjectiveRunEvent) error
}

// PartitionEvent captures the size of a rebuilt partition.
type PartitionEvent struct {
	ObjectiveID string
	Training    int
	Candidates  int
	Time        time.Time
}

// PartitionRecorder records partition sizes.
type PartitionRecorder interface {
	RecordPartition(ev PartitionEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRanking(RankingEvent) error           { return nil }
func (NopSink) RecordObjectiveRun(ObjectiveRunEvent) error { return nil }
func (NopSink) RecordPartition(PartitionEvent) error       { return nil }
