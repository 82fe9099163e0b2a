// Package factory provides a small generic registry used to instantiate
// modules from configuration. Modules are defined by a type string and a map
// of raw settings. Factories decode the settings into typed structs and
// return the concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[model.Model]("model")
//	reg.Register("ridge", func(conf map[string]any) (model.Model, error) {
//	    var c struct{ Lambda float64 `json:"lambda"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return model.NewRidge(c.Lambda), nil
//	})
//	m, err := reg.Create(factory.ModuleConfig{Type: "ridge", Conf: map[string]any{"lambda": 0.1}})
package factory
