package model

import "github.com/kilianp07/optimanage/core/factory"

var registry = factory.NewRegistry[Model]("model")

func init() {
	_ = Register("ridge", func(conf map[string]any) (Model, error) {
		var c struct {
			Lambda float64 `json:"lambda"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRidge(c.Lambda), nil
	})
	_ = Register("bagged", func(conf map[string]any) (Model, error) {
		var c struct {
			Members int     `json:"members"`
			Lambda  float64 `json:"lambda"`
			Seed    int64   `json:"seed"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewBagged(c.Members, c.Lambda, c.Seed), nil
	})
}

// Register adds a model factory identified by name.
func Register(name string, f factory.Factory[Model]) error {
	return registry.Register(name, f)
}

// New creates a model from its configuration. An empty type selects "bagged".
func New(cfg factory.ModuleConfig) (Model, error) {
	if cfg.Type == "" {
		cfg.Type = "bagged"
	}
	return registry.Create(cfg)
}
