package objective

import (
	"fmt"

	"github.com/kilianp07/optimanage/core/record"
)

// Featurizer converts the input properties of a record into a numeric vector.
type Featurizer func(rec record.Record, paths []string) ([]float64, error)

// Target extracts the regression target from the response properties.
type Target func(rec record.Record, paths []string) (float64, error)

// NumericFeatures concatenates the numeric values found at paths. Scalars
// contribute one feature; arrays (including nested ones such as an elastic
// tensor) are flattened in order.
func NumericFeatures(rec record.Record, paths []string) ([]float64, error) {
	var out []float64
	for _, p := range paths {
		v, ok := rec.Get(p)
		if !ok {
			return nil, &MissingPropertyError{RecordID: rec.ID(), Path: p}
		}
		var err error
		out, err = appendNumeric(out, v)
		if err != nil {
			return nil, fmt.Errorf("record %s property %q: %w", rec.ID(), p, err)
		}
	}
	return out, nil
}

// FirstResponse returns the first response property as a float.
func FirstResponse(rec record.Record, paths []string) (float64, error) {
	if len(paths) == 0 {
		return 0, fmt.Errorf("no response property declared")
	}
	return Float(rec, paths[0])
}

// Float returns the property at path as a float, failing with a
// MissingPropertyError when absent.
func Float(rec record.Record, path string) (float64, error) {
	v, ok := rec.Get(path)
	if !ok {
		return 0, &MissingPropertyError{RecordID: rec.ID(), Path: path}
	}
	f, ok := record.ToFloat(v)
	if !ok {
		return 0, fmt.Errorf("record %s property %q: %w", rec.ID(), path, ErrNonNumeric)
	}
	return f, nil
}

func appendNumeric(out []float64, v any) ([]float64, error) {
	switch t := v.(type) {
	case []any:
		for _, e := range t {
			var err error
			if out, err = appendNumeric(out, e); err != nil {
				return nil, err
			}
		}
		return out, nil
	case []float64:
		return append(out, t...), nil
	case [][]float64:
		for _, row := range t {
			out = append(out, row...)
		}
		return out, nil
	}
	f, ok := record.ToFloat(v)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNonNumeric, v)
	}
	return append(out, f), nil
}
