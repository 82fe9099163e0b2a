package objective

import (
	"fmt"
	"strings"
)

// Scorer combines a model prediction and its uncertainty into a score.
type Scorer struct {
	Name string
	// NeedsUncertainty tells the objective to query the model uncertainty.
	NeedsUncertainty bool
	Fn               func(prediction, uncertainty float64) float64
}

// Prediction scores candidates by their raw predicted value.
var Prediction = Scorer{
	Name: "prediction",
	Fn:   func(p, _ float64) float64 { return p },
}

// Exploration scores candidates by model uncertainty only.
var Exploration = Scorer{
	Name:             "exploration",
	NeedsUncertainty: true,
	Fn:               func(_, u float64) float64 { return u },
}

// UpperConfidenceBound scores candidates by prediction + kappa*uncertainty.
func UpperConfidenceBound(kappa float64) Scorer {
	return Scorer{
		Name:             "ucb",
		NeedsUncertainty: true,
		Fn:               func(p, u float64) float64 { return p + kappa*u },
	}
}

// ScorerByName returns the scorer registered under name. Empty selects
// Prediction. kappa only applies to "ucb".
func ScorerByName(name string, kappa float64) (Scorer, error) {
	switch strings.ToLower(name) {
	case "", "prediction":
		return Prediction, nil
	case "ucb":
		if kappa == 0 {
			kappa = 1
		}
		return UpperConfidenceBound(kappa), nil
	case "exploration":
		return Exploration, nil
	default:
		return Scorer{}, fmt.Errorf("unknown scorer %q", name)
	}
}
