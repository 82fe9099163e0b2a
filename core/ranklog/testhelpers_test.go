package ranklog

import (
	"errors"
	"time"

	"github.com/kilianp07/optimanage/core/dispatch"
	"github.com/kilianp07/optimanage/core/workflow"
)

func sampleEntry(id string, ts time.Time, materials ...string) Entry {
	r := dispatch.Ranking{ID: id, CreatedAt: ts}
	for i, m := range materials {
		r.Entries = append(r.Entries, dispatch.RankedWorkflow{
			Instance:      workflow.Instance{Type: "elastic_tensor", MaterialID: m},
			Score:         float64(len(materials) - i),
			Contributions: map[string]float64{"high_ductility": float64(len(materials) - i)},
		})
	}
	return FromRanking(r, len(materials), map[string]float64{"high_ductility": 1})
}

func partialEntry(id string, ts time.Time) Entry {
	r := dispatch.Ranking{ID: id, CreatedAt: ts, Errors: []error{errors.New("objective x: train: boom")}}
	return FromRanking(r, 5, nil)
}
