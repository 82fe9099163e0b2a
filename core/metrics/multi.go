package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRanking forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRanking(ev RankingEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordRanking(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordObjectiveRun forwards run events when supported by the sink.
func (m *MultiSink) RecordObjectiveRun(ev ObjectiveRunEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(ObjectiveRunRecorder); ok {
			if err := rec.RecordObjectiveRun(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordPartition forwards partition events when supported by the sink.
func (m *MultiSink) RecordPartition(ev PartitionEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(PartitionRecorder); ok {
			if err := rec.RecordPartition(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
