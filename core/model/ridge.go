package model

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultLambda keeps the normal equations well posed for collinear inputs.
const DefaultLambda = 1e-6

// Ridge is an L2-regularised linear regression with an unpenalised intercept.
// Its uncertainty is the residual standard deviation observed on the training
// set, identical for every input.
type Ridge struct {
	Lambda float64

	mu       sync.RWMutex
	coef     []float64 // coef[0] is the intercept
	residual float64
}

// NewRidge returns a ridge regressor. A non-positive lambda uses DefaultLambda.
func NewRidge(lambda float64) *Ridge {
	if lambda <= 0 {
		lambda = DefaultLambda
	}
	return &Ridge{Lambda: lambda}
}

// Train solves (XᵀX + λI)β = Xᵀy on the design matrix with an intercept column.
func (r *Ridge) Train(inputs [][]float64, responses []float64) error {
	cols, err := checkShape(inputs, responses, true)
	if err != nil {
		return err
	}
	coef, err := fitRidge(inputs, responses, cols, r.Lambda)
	if err != nil {
		return err
	}
	var sse float64
	for i, row := range inputs {
		d := responses[i] - dot(coef, row)
		sse += d * d
	}
	dof := float64(len(inputs) - cols - 1)
	if dof < 1 {
		dof = float64(len(inputs))
	}
	r.mu.Lock()
	r.coef = coef
	r.residual = math.Sqrt(sse / dof)
	r.mu.Unlock()
	return nil
}

// Predict implements Model.
func (r *Ridge) Predict(inputs [][]float64) ([]float64, error) {
	r.mu.RLock()
	coef := r.coef
	r.mu.RUnlock()
	if coef == nil {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(inputs))
	for i, row := range inputs {
		if len(row) != len(coef)-1 {
			return nil, fmt.Errorf("%w: row %d has %d features, expected %d", ErrShape, i, len(row), len(coef)-1)
		}
		out[i] = dot(coef, row)
	}
	return out, nil
}

// Uncertainty implements Model.
func (r *Ridge) Uncertainty(inputs [][]float64) ([]float64, error) {
	r.mu.RLock()
	trained, res := r.coef != nil, r.residual
	r.mu.RUnlock()
	if !trained {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(inputs))
	for i := range out {
		out[i] = res
	}
	return out, nil
}

// Validate implements Model.
func (r *Ridge) Validate(inputs [][]float64, responses []float64) (float64, error) {
	return validate(r, inputs, responses)
}

// Coefficients returns a copy of the fitted coefficients, intercept first.
func (r *Ridge) Coefficients() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]float64(nil), r.coef...)
}

func fitRidge(inputs [][]float64, responses []float64, cols int, lambda float64) ([]float64, error) {
	n, p := len(inputs), cols+1
	x := mat.NewDense(n, p, nil)
	for i, row := range inputs {
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}
	y := mat.NewVecDense(n, append([]float64(nil), responses...))

	var a mat.Dense
	a.Mul(x.T(), x)
	for j := 1; j < p; j++ {
		a.Set(j, j, a.At(j, j)+lambda)
	}
	var b mat.VecDense
	b.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&a, &b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("ridge solve: %w", err)
		}
	}
	coef := make([]float64, p)
	for j := range coef {
		coef[j] = beta.AtVec(j)
		if math.IsNaN(coef[j]) || math.IsInf(coef[j], 0) {
			return nil, fmt.Errorf("ridge solve: non-finite coefficient")
		}
	}
	return coef, nil
}

func dot(coef, row []float64) float64 {
	v := coef[0]
	for j, x := range row {
		v += coef[j+1] * x
	}
	return v
}

func validate(m Model, inputs [][]float64, responses []float64) (float64, error) {
	if _, err := checkShape(inputs, responses, true); err != nil {
		return 0, err
	}
	pred, err := m.Predict(inputs)
	if err != nil {
		return 0, err
	}
	return stat.RSquaredFrom(pred, responses, nil), nil
}
