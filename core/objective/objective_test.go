package objective

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/optimanage/core/model"
	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/workflow"
)

func trainingSet() []record.Record {
	return []record.Record{
		record.New("mp-1", map[string]any{"p_in": 1.0, "p_out": 2.0}),
		record.New("mp-3", map[string]any{"p_in": 3.0, "p_out": 6.0}),
		record.New("mp-5", map[string]any{"p_in": 5.0, "p_out": 10.0}),
	}
}

func newLinear(t *testing.T, scorer Scorer) *ModelObjective {
	t.Helper()
	o, err := New(Spec{
		ID:        "linear",
		Model:     model.NewRidge(0),
		Workflows: []workflow.Type{workflow.ElasticTensor},
		Inputs:    []string{"p_in"},
		Responses: []string{"p_out"},
		Scorer:    scorer,
	})
	require.NoError(t, err)
	return o
}

func TestModelObjectiveTrainAndScore(t *testing.T) {
	o := newLinear(t, Scorer{})
	ctx := context.Background()
	require.NoError(t, o.TrainModel(ctx, trainingSet()))

	cands := []record.Record{
		record.New("mp-2", map[string]any{"p_in": 2.0}),
		record.New("mp-4", map[string]any{"p_in": 4.0}),
	}
	scores, err := o.ReturnScores(ctx, cands)
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Equal(t, "mp-2", scores[0].Record.ID())
	assert.InDelta(t, 4, scores[0].Value, 1e-3)
	assert.InDelta(t, 8, scores[1].Value, 1e-3)
	assert.False(t, cands[0].Has("score"), "candidates are left untouched")

	r2, err := o.Validate(ctx, trainingSet())
	require.NoError(t, err)
	assert.InDelta(t, 1, r2, 1e-6)
}

func TestModelObjectiveMissingProperty(t *testing.T) {
	o := newLinear(t, Prediction)
	ctx := context.Background()
	require.NoError(t, o.TrainModel(ctx, trainingSet()))

	_, err := o.ReturnScores(ctx, []record.Record{record.New("mp-9", map[string]any{"other": 1})})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingProperty)
	var mpe *MissingPropertyError
	require.True(t, errors.As(err, &mpe))
	assert.Equal(t, "mp-9", mpe.RecordID)
	assert.Equal(t, "p_in", mpe.Path)

	err = o.TrainModel(ctx, []record.Record{record.New("mp-1", map[string]any{"p_in": 1.0})})
	assert.ErrorIs(t, err, ErrMissingProperty)
}

func TestModelObjectiveErrors(t *testing.T) {
	o := newLinear(t, Prediction)
	ctx := context.Background()
	assert.ErrorIs(t, o.TrainModel(ctx, nil), ErrNoTrainingData)

	_, err := o.ReturnScores(ctx, []record.Record{record.New("mp-2", map[string]any{"p_in": 2.0})})
	assert.ErrorIs(t, err, model.ErrNotTrained)

	scores, err := o.ReturnScores(ctx, nil)
	assert.NoError(t, err)
	assert.Empty(t, scores)

	_, err = New(Spec{ID: "x", Model: model.NewRidge(0)})
	assert.Error(t, err)
	_, err = New(Spec{Model: model.NewRidge(0), Workflows: []workflow.Type{workflow.BandStructure}})
	assert.Error(t, err)
	_, err = New(Spec{ID: "x", Workflows: []workflow.Type{workflow.BandStructure}})
	assert.Error(t, err)
}

func TestModelObjectiveUCB(t *testing.T) {
	o, err := New(Spec{
		ID:        "ucb",
		Model:     model.NewBagged(6, 0.01, 1),
		Workflows: []workflow.Type{workflow.ElasticTensor},
		Inputs:    []string{"p_in"},
		Responses: []string{"p_out"},
		Scorer:    UpperConfidenceBound(2),
	})
	require.NoError(t, err)
	ctx := context.Background()
	train := append(trainingSet(), record.New("mp-7", map[string]any{"p_in": 7.0, "p_out": 13.0}))
	require.NoError(t, o.TrainModel(ctx, train))

	cand := []record.Record{record.New("mp-2", map[string]any{"p_in": 2.0})}
	scores, err := o.ReturnScores(ctx, cand)
	require.NoError(t, err)

	pred, _ := o.Model().Predict([][]float64{{2}})
	unc, _ := o.Model().Uncertainty([][]float64{{2}})
	assert.InDelta(t, pred[0]+2*unc[0], scores[0].Value, 1e-9)
}

func TestNumericFeaturesFlattens(t *testing.T) {
	rec := record.New("mp-1", map[string]any{
		"elasticity": map[string]any{"elastic_tensor": []any{[]any{1.0, 2.0}, []any{3.0, 4.0}}},
		"nsites":     2,
		"is_metal":   true,
	})
	f, err := NumericFeatures(rec, []string{"elasticity.elastic_tensor", "nsites", "is_metal"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 2, 1}, f)

	_, err = NumericFeatures(record.New("mp-2", map[string]any{"formula": "NaCl"}), []string{"formula"})
	assert.ErrorIs(t, err, ErrNonNumeric)
}

func TestScorerByName(t *testing.T) {
	s, err := ScorerByName("", 0)
	require.NoError(t, err)
	assert.Equal(t, "prediction", s.Name)
	s, err = ScorerByName("UCB", 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, s.Fn(1, 2))
	s, err = ScorerByName("exploration", 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, s.Fn(1, 2))
	_, err = ScorerByName("thompson", 0)
	assert.Error(t, err)
}

func TestRequiredProperties(t *testing.T) {
	o := newLinear(t, Prediction)
	props := RequiredProperties(o)
	assert.Equal(t, "p_in", props[0])
	assert.Equal(t, "p_out", props[1])
	assert.Contains(t, props, "elasticity.K_VRH")
}

type fixedModel struct {
	pred []float64
	unc  []float64
}

func (m fixedModel) Train([][]float64, []float64) error               { return nil }
func (m fixedModel) Predict([][]float64) ([]float64, error)           { return m.pred, nil }
func (m fixedModel) Uncertainty([][]float64) ([]float64, error)       { return m.unc, nil }
func (m fixedModel) Validate([][]float64, []float64) (float64, error) { return 0, nil }

func TestReturnScoresChecksModelOutputLength(t *testing.T) {
	ctx := context.Background()
	cands := []record.Record{
		record.New("mp-2", map[string]any{"p_in": 2.0}),
		record.New("mp-4", map[string]any{"p_in": 4.0}),
	}
	cases := []struct {
		name   string
		model  fixedModel
		scorer Scorer
	}{
		{"short predictions", fixedModel{pred: []float64{1}}, Prediction},
		{"short uncertainty", fixedModel{pred: []float64{1, 2}, unc: []float64{0.1}}, UpperConfidenceBound(1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := New(Spec{
				ID:        "fixed",
				Model:     tc.model,
				Workflows: []workflow.Type{workflow.ElasticTensor},
				Inputs:    []string{"p_in"},
				Responses: []string{"p_out"},
				Scorer:    tc.scorer,
			})
			require.NoError(t, err)
			_, err = o.ReturnScores(ctx, cands)
			assert.ErrorIs(t, err, model.ErrShape)
		})
	}
}
