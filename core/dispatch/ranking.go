package dispatch

import (
	"errors"
	"time"

	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/workflow"
)

// Partition is the training/candidate split computed for one objective.
type Partition struct {
	Training   []record.Record
	Candidates []record.Record
}

// Scored is one workflow instance scored by a single objective.
type Scored struct {
	Instance workflow.Instance
	Score    float64
}

// RankedWorkflow is an entry of a ranking. Contributions holds the weighted
// score added by each objective.
type RankedWorkflow struct {
	Instance      workflow.Instance  `json:"instance"`
	Score         float64            `json:"score"`
	Contributions map[string]float64 `json:"contributions,omitempty"`
}

// Ranking is the result of RankWflows. Errors lists the objectives that
// failed and were left out of the aggregation.
type Ranking struct {
	ID        string           `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Entries   []RankedWorkflow `json:"entries"`
	Errors    []error          `json:"-"`
}

// Partial reports whether some objectives failed.
func (r Ranking) Partial() bool { return len(r.Errors) > 0 }

// Err joins the collected objective errors.
func (r Ranking) Err() error { return errors.Join(r.Errors...) }

// Instances returns the ranked workflow instances in order.
func (r Ranking) Instances() []workflow.Instance {
	out := make([]workflow.Instance, len(r.Entries))
	for i, e := range r.Entries {
		out[i] = e.Instance
	}
	return out
}

// ErrorMessages returns the collected errors as strings.
func (r Ranking) ErrorMessages() []string {
	if len(r.Errors) == 0 {
		return nil
	}
	out := make([]string, len(r.Errors))
	for i, err := range r.Errors {
		out[i] = err.Error()
	}
	return out
}

// less orders entries by descending score, then material id, then workflow
// type name.
func less(a, b RankedWorkflow) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Instance.Less(b.Instance)
}
