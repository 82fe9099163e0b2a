package config

import (
	"fmt"
	"math"

	"github.com/kilianp07/optimanage/core/factory"
)

// ObjectiveConfig stores the type name of an objective plug-in, its weight
// and the raw configuration decoded by the plug-in factory.
type ObjectiveConfig struct {
	Type   string         `json:"type"`
	Weight *float64       `json:"weight"`
	Conf   map[string]any `json:"conf"`
}

// SetDefaults gives objectives without an explicit weight a weight of 1.
func (c *ObjectiveConfig) SetDefaults() {
	if c.Weight == nil {
		w := 1.0
		c.Weight = &w
	}
}

func (c ObjectiveConfig) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("type is required")
	}
	if w := c.WeightValue(); math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return fmt.Errorf("weight must be a finite non-negative number, got %v", w)
	}
	return nil
}

// WeightValue returns the configured weight, 1 when unset.
func (c ObjectiveConfig) WeightValue() float64 {
	if c.Weight == nil {
		return 1
	}
	return *c.Weight
}

// ID returns conf.id when set, otherwise the type name.
func (c ObjectiveConfig) ID() string {
	if id, ok := c.Conf["id"].(string); ok && id != "" {
		return id
	}
	return c.Type
}

// Module returns the factory configuration for the objective registry.
func (c ObjectiveConfig) Module() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Type, Conf: c.Conf}
}
