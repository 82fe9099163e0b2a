package events

import "time"

// Event is implemented by every dispatcher event.
type Event interface {
	Kind() string
}

// PartitionEvent is published when an objective partition is rebuilt.
type PartitionEvent struct {
	ObjectiveID string
	Training    int
	Candidates  int
	Token       string
}

func (PartitionEvent) Kind() string { return "partition" }

// ObjectiveRunEvent is published after each objective run. Err is nil on
// success.
type ObjectiveRunEvent struct {
	ObjectiveID string
	Scored      int
	Duration    time.Duration
	Err         error
}

func (ObjectiveRunEvent) Kind() string { return "objective_run" }

// RankingEvent is published when RankWflows returns a ranking.
type RankingEvent struct {
	RankingID string
	Entries   int
	Errors    int
	Duration  time.Duration
}

func (RankingEvent) Kind() string { return "ranking" }
