package objective

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kilianp07/optimanage/core/model"
	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/workflow"
)

// Spec configures a ModelObjective. Featurizer, Target and Scorer default to
// NumericFeatures, FirstResponse and Prediction.
type Spec struct {
	ID         string
	Model      model.Model
	Workflows  []workflow.Type
	Inputs     []string
	Responses  []string
	Featurizer Featurizer
	Target     Target
	Scorer     Scorer
}

// ModelObjective is the standard Objective implementation.
type ModelObjective struct {
	spec Spec
	mu   sync.Mutex
}

var _ Objective = (*ModelObjective)(nil)

// New validates spec and returns the objective.
func New(spec Spec) (*ModelObjective, error) {
	if spec.ID == "" {
		return nil, errors.New("objective: id is required")
	}
	if spec.Model == nil {
		return nil, fmt.Errorf("objective %s: model is required", spec.ID)
	}
	if len(spec.Workflows) == 0 {
		return nil, fmt.Errorf("objective %s: at least one workflow type is required", spec.ID)
	}
	if spec.Featurizer == nil {
		spec.Featurizer = NumericFeatures
	}
	if spec.Target == nil {
		spec.Target = FirstResponse
	}
	if spec.Scorer.Fn == nil {
		spec.Scorer = Prediction
	}
	spec.Workflows = append([]workflow.Type(nil), spec.Workflows...)
	spec.Inputs = append([]string(nil), spec.Inputs...)
	spec.Responses = append([]string(nil), spec.Responses...)
	return &ModelObjective{spec: spec}, nil
}

func (o *ModelObjective) ID() string { return o.spec.ID }

func (o *ModelObjective) WorkflowTypes() []workflow.Type {
	return append([]workflow.Type(nil), o.spec.Workflows...)
}

func (o *ModelObjective) InputProperties() []string {
	return append([]string(nil), o.spec.Inputs...)
}

func (o *ModelObjective) ResponseProperties() []string {
	return append([]string(nil), o.spec.Responses...)
}

// Model returns the underlying model.
func (o *ModelObjective) Model() model.Model { return o.spec.Model }

// Scorer returns the configured scorer.
func (o *ModelObjective) Scorer() Scorer { return o.spec.Scorer }

// TrainModel implements Objective.
func (o *ModelObjective) TrainModel(ctx context.Context, training []record.Record) error {
	if len(training) == 0 {
		return fmt.Errorf("objective %s: %w", o.spec.ID, ErrNoTrainingData)
	}
	xs, ys, err := o.samples(ctx, training)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.spec.Model.Train(xs, ys); err != nil {
		return fmt.Errorf("objective %s: train: %w", o.spec.ID, err)
	}
	return nil
}

// ReturnScores implements Objective.
func (o *ModelObjective) ReturnScores(ctx context.Context, candidates []record.Record) ([]Score, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	xs := make([][]float64, len(candidates))
	for i, rec := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x, err := o.spec.Featurizer(rec, o.spec.Inputs)
		if err != nil {
			return nil, err
		}
		xs[i] = x
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	pred, err := o.spec.Model.Predict(xs)
	if err != nil {
		return nil, fmt.Errorf("objective %s: predict: %w", o.spec.ID, err)
	}
	if len(pred) != len(xs) {
		return nil, fmt.Errorf("objective %s: predict: %w: %d predictions for %d rows", o.spec.ID, model.ErrShape, len(pred), len(xs))
	}
	unc := make([]float64, len(xs))
	if o.spec.Scorer.NeedsUncertainty {
		if unc, err = o.spec.Model.Uncertainty(xs); err != nil {
			return nil, fmt.Errorf("objective %s: uncertainty: %w", o.spec.ID, err)
		}
		if len(unc) != len(xs) {
			return nil, fmt.Errorf("objective %s: uncertainty: %w: %d values for %d rows", o.spec.ID, model.ErrShape, len(unc), len(xs))
		}
	}
	scores := make([]Score, len(candidates))
	for i, rec := range candidates {
		scores[i] = Score{Record: rec, Value: o.spec.Scorer.Fn(pred[i], unc[i])}
	}
	return scores, nil
}

// Validate returns the R² of the trained model on the given records.
func (o *ModelObjective) Validate(ctx context.Context, recs []record.Record) (float64, error) {
	xs, ys, err := o.samples(ctx, recs)
	if err != nil {
		return 0, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.spec.Model.Validate(xs, ys)
}

func (o *ModelObjective) samples(ctx context.Context, recs []record.Record) ([][]float64, []float64, error) {
	xs := make([][]float64, 0, len(recs))
	ys := make([]float64, 0, len(recs))
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		x, err := o.spec.Featurizer(rec, o.spec.Inputs)
		if err != nil {
			return nil, nil, err
		}
		y, err := o.spec.Target(rec, o.spec.Responses)
		if err != nil {
			return nil, nil, err
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	return xs, ys, nil
}
