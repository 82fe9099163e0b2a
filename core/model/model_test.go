package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/optimanage/core/factory"
)

// linearSamples returns y = 2 + 3*x0 - x1 on a small grid.
func linearSamples() ([][]float64, []float64) {
	var xs [][]float64
	var ys []float64
	for i := 0; i < 5; i++ {
		for j := 0; j < 4; j++ {
			x0, x1 := float64(i), float64(j)*0.5
			xs = append(xs, []float64{x0, x1})
			ys = append(ys, 2+3*x0-x1)
		}
	}
	return xs, ys
}

func TestRidgeFitsLinearData(t *testing.T) {
	xs, ys := linearSamples()
	r := NewRidge(0)
	require.NoError(t, r.Train(xs, ys))

	coef := r.Coefficients()
	require.Len(t, coef, 3)
	assert.InDelta(t, 2, coef[0], 1e-3)
	assert.InDelta(t, 3, coef[1], 1e-3)
	assert.InDelta(t, -1, coef[2], 1e-3)

	pred, err := r.Predict([][]float64{{10, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 31, pred[0], 1e-2)

	r2, err := r.Validate(xs, ys)
	require.NoError(t, err)
	assert.InDelta(t, 1, r2, 1e-6)

	unc, err := r.Uncertainty([][]float64{{1, 1}, {2, 2}})
	require.NoError(t, err)
	assert.Len(t, unc, 2)
	assert.InDelta(t, 0, unc[0], 1e-3)
}

func TestRidgeErrors(t *testing.T) {
	r := NewRidge(0.1)
	_, err := r.Predict([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotTrained)
	_, err = r.Uncertainty([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotTrained)

	assert.ErrorIs(t, r.Train(nil, nil), ErrEmptyTrainingSet)
	assert.ErrorIs(t, r.Train([][]float64{{1}, {2}}, []float64{1}), ErrShape)
	assert.ErrorIs(t, r.Train([][]float64{{1}, {2, 3}}, []float64{1, 2}), ErrShape)

	require.NoError(t, r.Train([][]float64{{1}, {2}}, []float64{1, 2}))
	_, err = r.Predict([][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrShape)
}

func TestRidgeSingleSample(t *testing.T) {
	r := NewRidge(0)
	require.NoError(t, r.Train([][]float64{{1, 2}}, []float64{5}))
	pred, err := r.Predict([][]float64{{1, 2}})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(pred[0]))
}

func TestBaggedEnsemble(t *testing.T) {
	xs, ys := linearSamples()
	// perturb responses so members disagree
	for i := range ys {
		if i%3 == 0 {
			ys[i] += 0.5
		}
	}
	b := NewBagged(8, 0.01, 42)
	require.NoError(t, b.Train(xs, ys))

	pred, err := b.Predict([][]float64{{2, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 7, pred[0], 0.5)

	unc, err := b.Uncertainty([][]float64{{2, 1}, {100, 0}})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, unc[0], 0.0)
	assert.Greater(t, unc[1], unc[0], "extrapolation should be less certain")

	r2, err := b.Validate(xs, ys)
	require.NoError(t, err)
	assert.Greater(t, r2, 0.9)
}

func TestBaggedDeterministicSeed(t *testing.T) {
	xs, ys := linearSamples()
	a, b := NewBagged(5, 0.1, 7), NewBagged(5, 0.1, 7)
	require.NoError(t, a.Train(xs, ys))
	require.NoError(t, b.Train(xs, ys))
	pa, _ := a.Predict([][]float64{{1.5, 0.5}})
	pb, _ := b.Predict([][]float64{{1.5, 0.5}})
	assert.Equal(t, pa, pb)
}

func TestBaggedMemberCount(t *testing.T) {
	assert.Equal(t, DefaultMembers, NewBagged(0, 0, 0).Members)
	assert.Equal(t, DefaultMembers, NewBagged(-3, 0, 0).Members)
	assert.Equal(t, 2, NewBagged(1, 0, 0).Members)
	assert.Equal(t, 5, NewBagged(5, 0, 0).Members)
}

func TestBaggedNotTrained(t *testing.T) {
	_, err := NewBagged(0, 0, 0).Predict([][]float64{{1}})
	assert.ErrorIs(t, err, ErrNotTrained)
}

func TestFactory(t *testing.T) {
	m, err := New(factory.ModuleConfig{Type: "ridge", Conf: map[string]any{"lambda": 0.5}})
	require.NoError(t, err)
	r, ok := m.(*Ridge)
	require.True(t, ok)
	assert.Equal(t, 0.5, r.Lambda)

	m, err = New(factory.ModuleConfig{Conf: map[string]any{"members": 4, "seed": 3}})
	require.NoError(t, err)
	bg, ok := m.(*Bagged)
	require.True(t, ok)
	assert.Equal(t, 4, bg.Members)

	_, err = New(factory.ModuleConfig{Type: "forest"})
	assert.Error(t, err)
}
