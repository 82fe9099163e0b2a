package objectives

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/optimanage/core/factory"
	"github.com/kilianp07/optimanage/core/objective"
	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/workflow"
)

func elasticRecord(id string, density, k, g, nu float64) record.Record {
	return record.New(id, map[string]any{
		"density": density,
		"volume":  density * 10,
		"nsites":  2,
		"elasticity": map[string]any{
			"K_VRH":         k,
			"G_VRH":         g,
			"poisson_ratio": nu,
		},
	})
}

func TestHighDuctilityDefaults(t *testing.T) {
	obj, err := New(factory.ModuleConfig{Type: "high_ductility", Conf: map[string]any{
		"model": map[string]any{"type": "ridge"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "high_ductility", obj.ID())
	assert.Equal(t, []string{"density", "volume", "nsites"}, obj.InputProperties())
	assert.Equal(t, []string{PropBulkModulus, PropShearModulus}, obj.ResponseProperties())
	require.Len(t, obj.WorkflowTypes(), 1)
	assert.Equal(t, "elastic_tensor", obj.WorkflowTypes()[0].Name())

	ctx := context.Background()
	train := []record.Record{
		elasticRecord("mp-1", 2, 100, 50, 0.3),
		elasticRecord("mp-3", 4, 200, 50, 0.3),
		elasticRecord("mp-5", 6, 300, 50, 0.3),
	}
	require.NoError(t, obj.TrainModel(ctx, train))
	scores, err := obj.ReturnScores(ctx, []record.Record{
		record.New("mp-2", map[string]any{"density": 3.0, "volume": 30.0, "nsites": 2}),
	})
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.InDelta(t, 3, scores[0].Value, 1e-2)
}

func TestPughRatio(t *testing.T) {
	v, err := PughRatio(elasticRecord("mp-1", 1, 90, 30, 0.2), nil)
	require.NoError(t, err)
	assert.InDelta(t, 3, v, 1e-9)

	_, err = PughRatio(elasticRecord("mp-1", 1, 90, 0, 0.2), nil)
	assert.Error(t, err)

	_, err = PughRatio(record.New("mp-2", nil), nil)
	assert.ErrorIs(t, err, objective.ErrMissingProperty)
}

func TestNegatedPoisson(t *testing.T) {
	v, err := NegatedPoisson(elasticRecord("mp-1", 1, 90, 30, -0.1), nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, v, 1e-9)
}

func TestRegressionRequiresResponses(t *testing.T) {
	_, err := New(factory.ModuleConfig{Type: "regression", Conf: map[string]any{"id": "r", "inputs": []any{"p_in"}}})
	assert.Error(t, err)

	obj, err := New(factory.ModuleConfig{Type: "regression", Conf: map[string]any{
		"id":        "r",
		"inputs":    []any{"p_in"},
		"responses": []any{"p_out"},
		"workflows": []any{"band_structure", "elastic_tensor"},
		"scorer":    "ucb",
		"kappa":     0.5,
	}})
	require.NoError(t, err)
	assert.Len(t, obj.WorkflowTypes(), 2)
	mo, ok := obj.(*objective.ModelObjective)
	require.True(t, ok)
	assert.Equal(t, "ucb", mo.Scorer().Name)
}

func TestFactoryErrors(t *testing.T) {
	_, err := New(factory.ModuleConfig{Type: "regression", Conf: map[string]any{"responses": []any{"x"}}})
	assert.Error(t, err, "missing id")
	_, err = New(factory.ModuleConfig{Type: "negative_poisson", Conf: map[string]any{"workflows": []any{"phonons"}}})
	assert.Error(t, err)
	_, err = New(factory.ModuleConfig{Type: "negative_poisson", Conf: map[string]any{"scorer": "greedy"}})
	assert.Error(t, err)
	_, err = New(factory.ModuleConfig{Type: "unknown"})
	assert.Error(t, err)
	assert.Equal(t, []string{"high_ductility", "negative_poisson", "regression"}, Types())
}

func TestWorkflowDependenciesResolvedAtBuild(t *testing.T) {
	orig := Workflows
	t.Cleanup(func() { Workflows = orig })
	Workflows = workflow.DefaultRegistry()
	require.NoError(t, Workflows.Register(workflow.NewType("relax_a", []string{"relax_b"}, nil)))
	require.NoError(t, Workflows.Register(workflow.NewType("relax_b", []string{"relax_a"}, nil)))
	require.NoError(t, Workflows.Register(workflow.NewType("phonons", []string{"dfpt"}, nil)))

	conf := func(wf string) factory.ModuleConfig {
		return factory.ModuleConfig{Type: "negative_poisson", Conf: map[string]any{
			"model":     map[string]any{"type": "ridge"},
			"workflows": []any{wf},
		}}
	}
	_, err := New(conf("relax_a"))
	assert.ErrorIs(t, err, workflow.ErrDependencyCycle)
	_, err = New(conf("phonons"))
	assert.ErrorIs(t, err, workflow.ErrUnknownType)

	obj, err := New(conf("band_structure"))
	require.NoError(t, err)
	require.Len(t, obj.WorkflowTypes(), 1)
	assert.Equal(t, "band_structure", obj.WorkflowTypes()[0].Name())
}
