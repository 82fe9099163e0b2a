package objective

import (
	"context"
	"errors"
	"fmt"

	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/workflow"
)

var (
	// ErrMissingProperty matches every *MissingPropertyError.
	ErrMissingProperty = errors.New("missing property")
	// ErrNonNumeric is returned when a property cannot be converted to numbers.
	ErrNonNumeric = errors.New("non-numeric property")
	// ErrNoTrainingData is returned when training is requested on zero records.
	ErrNoTrainingData = errors.New("no training data")
)

// MissingPropertyError reports a declared property absent from a record.
type MissingPropertyError struct {
	RecordID string
	Path     string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("record %s: missing property %q", e.RecordID, e.Path)
}

// Is reports whether target is ErrMissingProperty.
func (e *MissingPropertyError) Is(target error) bool { return target == ErrMissingProperty }

// Score associates a candidate record with its objective score.
type Score struct {
	Record record.Record
	Value  float64
}

// Objective is a scoring goal backed by a trainable model.
type Objective interface {
	// ID uniquely identifies the objective inside a dispatcher.
	ID() string
	// WorkflowTypes returns the workflow types this objective motivates.
	WorkflowTypes() []workflow.Type
	// InputProperties returns the property paths used as model inputs.
	InputProperties() []string
	// ResponseProperties returns the property paths the model learns.
	ResponseProperties() []string
	// TrainModel fits the model on records holding every input and response.
	TrainModel(ctx context.Context, training []record.Record) error
	// ReturnScores scores candidate records, preserving their order. Records
	// are never modified.
	ReturnScores(ctx context.Context, candidates []record.Record) ([]Score, error)
}

// RequiredProperties returns the union of the objective inputs, responses and
// the properties produced by its workflow types, without duplicates.
func RequiredProperties(o Objective) []string {
	seen := map[string]bool{}
	var out []string
	add := func(ps []string) {
		for _, p := range ps {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	add(o.InputProperties())
	add(o.ResponseProperties())
	for _, wt := range o.WorkflowTypes() {
		add(wt.Properties())
	}
	return out
}
