package objectives

import (
	"fmt"

	"github.com/kilianp07/optimanage/core/factory"
	"github.com/kilianp07/optimanage/core/model"
	"github.com/kilianp07/optimanage/core/objective"
	"github.com/kilianp07/optimanage/core/workflow"
)

// Config is the raw configuration shared by every built-in objective.
type Config struct {
	ID        string               `json:"id"`
	Model     factory.ModuleConfig `json:"model"`
	Workflows []string             `json:"workflows"`
	Inputs    []string             `json:"inputs"`
	Responses []string             `json:"responses"`
	Scorer    string               `json:"scorer"`
	Kappa     float64              `json:"kappa"`
}

// Workflows resolves workflow type names. It defaults to the built-in types.
var Workflows = workflow.DefaultRegistry()

// decode reads conf and fills the fields it leaves empty from defaults.
func decode(conf map[string]any, defaults Config) (Config, error) {
	var c Config
	if err := factory.Decode(conf, &c); err != nil {
		return Config{}, err
	}
	if c.ID == "" {
		c.ID = defaults.ID
	}
	if len(c.Workflows) == 0 {
		c.Workflows = append([]string(nil), defaults.Workflows...)
	}
	if len(c.Inputs) == 0 {
		c.Inputs = append([]string(nil), defaults.Inputs...)
	}
	if len(c.Responses) == 0 {
		c.Responses = append([]string(nil), defaults.Responses...)
	}
	if c.ID == "" {
		return Config{}, fmt.Errorf("objective id is required")
	}
	return c, nil
}

func build(c Config, target objective.Target) (*objective.ModelObjective, error) {
	m, err := model.New(c.Model)
	if err != nil {
		return nil, fmt.Errorf("objective %s: %w", c.ID, err)
	}
	types := make([]workflow.Type, 0, len(c.Workflows))
	for _, name := range c.Workflows {
		// Resolving the dependency chain rejects unknown dependencies and cycles.
		chain, err := Workflows.Resolve(name)
		if err != nil {
			return nil, fmt.Errorf("objective %s: workflow %s: %w", c.ID, name, err)
		}
		types = append(types, chain[len(chain)-1])
	}
	scorer, err := objective.ScorerByName(c.Scorer, c.Kappa)
	if err != nil {
		return nil, fmt.Errorf("objective %s: %w", c.ID, err)
	}
	return objective.New(objective.Spec{
		ID:        c.ID,
		Model:     m,
		Workflows: types,
		Inputs:    c.Inputs,
		Responses: c.Responses,
		Target:    target,
		Scorer:    scorer,
	})
}
