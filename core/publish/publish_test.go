package publish

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/optimanage/core/dispatch"
	"github.com/kilianp07/optimanage/core/workflow"
)

func TestNewMessage(t *testing.T) {
	now := time.Now()
	r := dispatch.Ranking{
		ID:        "r1",
		CreatedAt: now,
		Entries: []dispatch.RankedWorkflow{
			{Instance: workflow.Instance{Type: "elastic_tensor", MaterialID: "mp-4"}, Score: 10},
			{Instance: workflow.Instance{Type: "band_structure", MaterialID: "mp-3"}, Score: 6},
		},
		Errors: []error{errors.New("objective b: train: boom")},
	}
	m := NewMessage("m1", r)
	assert.Equal(t, "m1", m.MessageID)
	assert.Equal(t, "r1", m.RankingID)
	assert.True(t, m.Partial)
	assert.Equal(t, []Entry{
		{Rank: 1, Type: "elastic_tensor", MaterialID: "mp-4", Score: 10},
		{Rank: 2, Type: "band_structure", MaterialID: "mp-3", Score: 6},
	}, m.Entries)
	assert.Equal(t, []string{"objective b: train: boom"}, m.Errors)
}
