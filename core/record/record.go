package record

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DefaultIDField is the document field holding the record identifier.
const DefaultIDField = "task_id"

// Record is an immutable view over one document of the dataset. The data is
// deep-copied on construction so callers cannot alter a record after it has
// been read from a store.
type Record struct {
	id   string
	data map[string]any
}

// New creates a record with the given identifier and properties.
func New(id string, data map[string]any) Record {
	cp, _ := deepCopy(data).(map[string]any)
	if cp == nil {
		cp = map[string]any{}
	}
	return Record{id: id, data: cp}
}

// FromDocument builds a record from a raw document, extracting the identifier
// from idField. The identifier field is kept out of the property map.
func FromDocument(doc map[string]any, idField string) (Record, error) {
	if idField == "" {
		idField = DefaultIDField
	}
	raw, ok := Lookup(doc, idField)
	if !ok || raw == nil {
		return Record{}, fmt.Errorf("record: missing identifier field %q", idField)
	}
	id, err := identifierString(raw)
	if err != nil {
		return Record{}, err
	}
	data := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == idField {
			continue
		}
		data[k] = v
	}
	return New(id, data), nil
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// Get returns the value stored at path. Maps and slices are returned as
// copies, so callers cannot change the record through them.
func (r Record) Get(path string) (any, bool) {
	v, ok := Lookup(r.data, path)
	if !ok {
		return nil, false
	}
	return deepCopy(v), true
}

// Has reports whether path is present. A present key holding nil counts.
func (r Record) Has(path string) bool {
	_, ok := Lookup(r.data, path)
	return ok
}

// Float returns the value at path converted to float64 when it is numeric.
func (r Record) Float(path string) (float64, bool) {
	v, ok := Lookup(r.data, path)
	if !ok {
		return 0, false
	}
	return ToFloat(v)
}

// Project returns a new record holding only the given paths. Paths absent
// from r are skipped.
func (r Record) Project(paths []string) Record {
	out := make(map[string]any, len(paths))
	for _, p := range paths {
		if v, ok := Lookup(r.data, p); ok {
			out[p] = v
		}
	}
	return New(r.id, out)
}

// Without returns a copy of r with the given paths removed. Like Lookup, the
// literal key is removed first, otherwise the nested path.
func (r Record) Without(paths ...string) Record {
	data := r.Data()
	for _, p := range paths {
		remove(data, p)
	}
	return Record{id: r.id, data: data}
}

// Data returns a copy of the underlying property map.
func (r Record) Data() map[string]any {
	cp, _ := deepCopy(r.data).(map[string]any)
	return cp
}

// Document returns the record as a raw document with the identifier stored
// under idField.
func (r Record) Document(idField string) map[string]any {
	if idField == "" {
		idField = DefaultIDField
	}
	doc := r.Data()
	if doc == nil {
		doc = map[string]any{}
	}
	doc[idField] = r.id
	return doc
}

// MarshalJSON encodes the record as a document keyed by DefaultIDField.
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document(DefaultIDField))
}

// UnmarshalJSON decodes a document keyed by DefaultIDField.
func (r *Record) UnmarshalJSON(b []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return err
	}
	rec, err := FromDocument(doc, DefaultIDField)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// Lookup resolves a dotted property path inside data. The literal key is tried
// first since exported datasets often carry flat keys such as
// "elasticity.elastic_tensor"; otherwise the path is walked segment by segment
// through nested maps.
func Lookup(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}
	if v, ok := data[path]; ok {
		return v, true
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	next, ok := data[head]
	if !ok {
		return nil, false
	}
	switch m := next.(type) {
	case map[string]any:
		return Lookup(m, rest)
	case map[any]any:
		return Lookup(stringKeys(m), rest)
	default:
		return nil, false
	}
}

// ToFloat converts numeric scalars and numeric strings to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func identifierString(v any) (string, error) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", fmt.Errorf("record: empty identifier")
		}
		return id, nil
	case fmt.Stringer:
		return id.String(), nil
	default:
		if f, ok := ToFloat(v); ok {
			return strconv.FormatFloat(f, 'f', -1, 64), nil
		}
		return "", fmt.Errorf("record: unsupported identifier type %T", v)
	}
}

func remove(data map[string]any, path string) {
	if _, ok := data[path]; ok {
		delete(data, path)
		return
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return
	}
	if m, ok := data[head].(map[string]any); ok {
		remove(m, rest)
	}
}

func stringKeys(m map[any]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[fmt.Sprint(k)] = v
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		cp := make(map[string]any, len(t))
		for k, val := range t {
			cp[k] = deepCopy(val)
		}
		return cp
	case map[any]any:
		cp := make(map[string]any, len(t))
		for k, val := range t {
			cp[fmt.Sprint(k)] = deepCopy(val)
		}
		return cp
	case []any:
		cp := make([]any, len(t))
		for i, val := range t {
			cp[i] = deepCopy(val)
		}
		return cp
	case []float64:
		cp := make([]float64, len(t))
		copy(cp, t)
		return cp
	case [][]float64:
		cp := make([][]float64, len(t))
		for i, row := range t {
			cp[i] = append([]float64(nil), row...)
		}
		return cp
	case []map[string]any:
		cp := make([]map[string]any, len(t))
		for i, m := range t {
			cp[i], _ = deepCopy(m).(map[string]any)
		}
		return cp
	default:
		return v
	}
}
