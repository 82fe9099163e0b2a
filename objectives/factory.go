package objectives

import (
	"github.com/kilianp07/optimanage/core/factory"
	"github.com/kilianp07/optimanage/core/objective"
)

var registry = factory.NewRegistry[objective.Objective]("objective")

func init() {
	_ = Register("regression", NewRegression)
	_ = Register("high_ductility", NewHighDuctility)
	_ = Register("negative_poisson", NewNegativePoisson)
}

// Register adds an objective factory identified by name.
func Register(name string, f factory.Factory[objective.Objective]) error {
	return registry.Register(name, f)
}

// New creates an objective from its configuration.
func New(cfg factory.ModuleConfig) (objective.Objective, error) {
	return registry.Create(cfg)
}

// Types returns the registered objective type names.
func Types() []string { return registry.Names() }
