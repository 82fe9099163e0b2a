package objectives

import (
	"fmt"

	"github.com/kilianp07/optimanage/core/objective"
	"github.com/kilianp07/optimanage/core/record"
)

// Property paths used by the materials objectives.
const (
	PropBulkModulus  = "elasticity.K_VRH"
	PropShearModulus = "elasticity.G_VRH"
	PropPoisson      = "elasticity.poisson_ratio"
)

var defaultInputs = []string{"density", "volume", "nsites"}

// NewRegression builds the generic objective learning its first response.
func NewRegression(conf map[string]any) (objective.Objective, error) {
	c, err := decode(conf, Config{Workflows: []string{"elastic_tensor"}})
	if err != nil {
		return nil, err
	}
	if len(c.Responses) == 0 {
		return nil, fmt.Errorf("objective %s: responses are required", c.ID)
	}
	return build(c, objective.FirstResponse)
}

// NewHighDuctility builds an objective scoring materials by predicted Pugh
// ratio. A ratio above 1.75 is commonly read as ductile.
func NewHighDuctility(conf map[string]any) (objective.Objective, error) {
	c, err := decode(conf, Config{
		ID:        "high_ductility",
		Workflows: []string{"elastic_tensor"},
		Inputs:    defaultInputs,
		Responses: []string{PropBulkModulus, PropShearModulus},
	})
	if err != nil {
		return nil, err
	}
	return build(c, PughRatio)
}

// NewNegativePoisson builds an objective favouring low, ideally negative,
// Poisson ratios.
func NewNegativePoisson(conf map[string]any) (objective.Objective, error) {
	c, err := decode(conf, Config{
		ID:        "negative_poisson",
		Workflows: []string{"elastic_tensor"},
		Inputs:    defaultInputs,
		Responses: []string{PropPoisson},
	})
	if err != nil {
		return nil, err
	}
	return build(c, NegatedPoisson)
}

// PughRatio returns K_VRH / G_VRH.
func PughRatio(rec record.Record, _ []string) (float64, error) {
	k, err := objective.Float(rec, PropBulkModulus)
	if err != nil {
		return 0, err
	}
	g, err := objective.Float(rec, PropShearModulus)
	if err != nil {
		return 0, err
	}
	if g == 0 {
		return 0, fmt.Errorf("record %s: zero shear modulus", rec.ID())
	}
	return k / g, nil
}

// NegatedPoisson returns -poisson_ratio.
func NegatedPoisson(rec record.Record, _ []string) (float64, error) {
	v, err := objective.Float(rec, PropPoisson)
	if err != nil {
		return 0, err
	}
	return -v, nil
}
