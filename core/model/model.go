package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotTrained is returned when predicting with a model that was never trained.
	ErrNotTrained = errors.New("model not trained")
	// ErrEmptyTrainingSet is returned when Train receives no samples.
	ErrEmptyTrainingSet = errors.New("empty training set")
	// ErrShape is returned when inputs and responses have inconsistent dimensions.
	ErrShape = errors.New("inconsistent input dimensions")
)

// Model is a trainable regressor.
type Model interface {
	// Train fits the model to the given samples. Each row of inputs is one
	// sample; responses holds the matching target values.
	Train(inputs [][]float64, responses []float64) error
	// Predict returns one prediction per input row.
	Predict(inputs [][]float64) ([]float64, error)
	// Uncertainty returns one non-negative spread estimate per input row.
	Uncertainty(inputs [][]float64) ([]float64, error)
	// Validate returns the coefficient of determination (R²) of the trained
	// model against the given samples.
	Validate(inputs [][]float64, responses []float64) (float64, error)
}

// checkShape validates a sample matrix and returns its column count.
func checkShape(inputs [][]float64, responses []float64, withResponses bool) (int, error) {
	if len(inputs) == 0 {
		return 0, ErrEmptyTrainingSet
	}
	if withResponses && len(inputs) != len(responses) {
		return 0, fmt.Errorf("%w: %d rows, %d responses", ErrShape, len(inputs), len(responses))
	}
	cols := len(inputs[0])
	for i, row := range inputs {
		if len(row) != cols {
			return 0, fmt.Errorf("%w: row %d has %d features, expected %d", ErrShape, i, len(row), cols)
		}
	}
	return cols, nil
}
