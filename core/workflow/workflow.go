package workflow

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrUnknownType is returned when a workflow type name is not registered.
	ErrUnknownType = errors.New("unknown workflow type")
	// ErrDependencyCycle is returned when dependencies form a cycle.
	ErrDependencyCycle = errors.New("workflow dependency cycle")
)

// Type is an immutable workflow description. The zero value is invalid.
type Type struct {
	name       string
	deps       []string
	properties []string
}

// NewType returns a workflow type. deps names other workflow types that must
// run first; properties lists the record properties the workflow produces.
func NewType(name string, deps, properties []string) Type {
	return Type{
		name:       name,
		deps:       append([]string(nil), deps...),
		properties: append([]string(nil), properties...),
	}
}

// Name returns the type name.
func (t Type) Name() string { return t.name }

// Dependencies returns the names of the workflow types this one depends on.
func (t Type) Dependencies() []string { return append([]string(nil), t.deps...) }

// Properties returns the record properties produced by the workflow.
func (t Type) Properties() []string { return append([]string(nil), t.properties...) }

// Instantiate returns the instance of this type for the given material.
func (t Type) Instantiate(materialID string) Instance {
	return Instance{Type: t.name, MaterialID: materialID}
}

// Instance is one unit of potential work. Instances compare structurally and
// can be used as map keys.
type Instance struct {
	Type       string `json:"type"`
	MaterialID string `json:"material_id"`
}

func (i Instance) String() string { return i.Type + ":" + i.MaterialID }

// Less orders instances by material identifier, then type name.
func (i Instance) Less(o Instance) bool {
	if i.MaterialID != o.MaterialID {
		return i.MaterialID < o.MaterialID
	}
	return i.Type < o.Type
}

// Registry holds workflow types by name.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewRegistry returns a registry holding the given types.
func NewRegistry(types ...Type) *Registry {
	r := &Registry{types: make(map[string]Type, len(types))}
	for _, t := range types {
		r.types[t.name] = t
	}
	return r
}

// Register adds or replaces a workflow type.
func (r *Registry) Register(t Type) error {
	if t.name == "" {
		return fmt.Errorf("workflow type name is required")
	}
	r.mu.Lock()
	r.types[t.name] = t
	r.mu.Unlock()
	return nil
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (Type, error) {
	r.mu.RLock()
	t, ok := r.types[name]
	r.mu.RUnlock()
	if !ok {
		return Type{}, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return t, nil
}

// Names returns the registered type names sorted lexically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve returns name and its transitive dependencies, dependencies first.
func (r *Registry) Resolve(name string) ([]Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Type
	state := map[string]int{} // 1 visiting, 2 done
	var visit func(string) error
	visit = func(n string) error {
		switch state[n] {
		case 1:
			return fmt.Errorf("%w: %s", ErrDependencyCycle, n)
		case 2:
			return nil
		}
		t, ok := r.types[n]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownType, n)
		}
		state[n] = 1
		for _, d := range t.deps {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[n] = 2
		out = append(out, t)
		return nil
	}
	if err := visit(name); err != nil {
		return nil, err
	}
	return out, nil
}
