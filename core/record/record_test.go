package record

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupNestedAndFlat(t *testing.T) {
	data := map[string]any{
		"elasticity":                map[string]any{"G_Voigt": 12.5, "K_Voigt": 30},
		"elasticity.elastic_tensor": []any{1.0, 2.0},
		"band_gap":                  nil,
	}
	v, ok := Lookup(data, "elasticity.G_Voigt")
	require.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = Lookup(data, "elasticity.elastic_tensor")
	require.True(t, ok)
	assert.Equal(t, []any{1.0, 2.0}, v)

	_, ok = Lookup(data, "band_gap")
	assert.True(t, ok, "nil values count as present")

	_, ok = Lookup(data, "elasticity.missing")
	assert.False(t, ok)
	_, ok = Lookup(data, "band_gap.value")
	assert.False(t, ok)
	_, ok = Lookup(nil, "x")
	assert.False(t, ok)
}

func TestRecordIsImmutable(t *testing.T) {
	src := map[string]any{"nested": map[string]any{"x": 1.0}}
	r := New("mp-1", src)
	src["nested"].(map[string]any)["x"] = 2.0

	f, ok := r.Float("nested.x")
	require.True(t, ok)
	assert.Equal(t, 1.0, f)

	d := r.Data()
	d["nested"].(map[string]any)["x"] = 3.0
	f, _ = r.Float("nested.x")
	assert.Equal(t, 1.0, f)
}

func TestGetReturnsCopies(t *testing.T) {
	r := New("mp-1", map[string]any{
		"elasticity": map[string]any{"K": 150.0, "G": 80.0},
		"arr":        []any{1.0, 2.0},
		"tensor":     [][]float64{{1, 2}, {3, 4}},
	})

	el, ok := r.Get("elasticity")
	require.True(t, ok)
	el.(map[string]any)["G"] = 99.0
	arr, _ := r.Get("arr")
	arr.([]any)[0] = 42.0
	tensor, _ := r.Get("tensor")
	tensor.([][]float64)[1][0] = -1

	g, _ := r.Float("elasticity.G")
	assert.Equal(t, 80.0, g)
	arr, _ = r.Get("arr")
	assert.Equal(t, []any{1.0, 2.0}, arr)
	tensor, _ = r.Get("tensor")
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, tensor)
}

func TestNewCopiesNestedSlices(t *testing.T) {
	tensor := [][]float64{{1, 2}, {3, 4}}
	r := New("mp-1", map[string]any{"tensor": tensor})
	tensor[0][0] = 7

	v, _ := r.Get("tensor")
	assert.Equal(t, 1.0, v.([][]float64)[0][0])
}

func TestProject(t *testing.T) {
	r := New("mp-2", map[string]any{
		"density":   map[string]any{"value": 3.2},
		"volume":    40,
		"unrelated": "x",
	})
	p := r.Project([]string{"density.value", "volume", "absent"})
	assert.Equal(t, "mp-2", p.ID())
	assert.True(t, p.Has("density.value"))
	assert.True(t, p.Has("volume"))
	assert.False(t, p.Has("unrelated"))
	assert.False(t, p.Has("absent"))
}

func TestFromDocument(t *testing.T) {
	r, err := FromDocument(map[string]any{"task_id": "mp-7", "p_in": 1.0}, "")
	require.NoError(t, err)
	assert.Equal(t, "mp-7", r.ID())
	assert.False(t, r.Has("task_id"))

	r, err = FromDocument(map[string]any{"id": 42, "p_in": 1.0}, "id")
	require.NoError(t, err)
	assert.Equal(t, "42", r.ID())

	_, err = FromDocument(map[string]any{"p_in": 1.0}, "")
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	r := New("mp-9", map[string]any{"p_in": 2.5})
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_id":"mp-9","p_in":2.5}`, string(b))

	var back Record
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, "mp-9", back.ID())
	f, ok := back.Float("p_in")
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)
}

func TestToFloat(t *testing.T) {
	cases := []struct {
		in   any
		want float64
		ok   bool
	}{
		{3, 3, true},
		{int64(4), 4, true},
		{float32(1.5), 1.5, true},
		{" 2.25 ", 2.25, true},
		{true, 1, true},
		{"abc", 0, false},
		{[]any{1}, 0, false},
	}
	for _, c := range cases {
		got, ok := ToFloat(c.in)
		assert.Equal(t, c.ok, ok, "%v", c.in)
		if c.ok {
			assert.Equal(t, c.want, got)
		}
	}
}

func TestWithout(t *testing.T) {
	r := New("mp-2", map[string]any{
		"elasticity":       map[string]any{"K_VRH": 10.0, "G_VRH": 5.0},
		"elasticity.G_VRH": 4.0,
		"density":          1.0,
	})
	out := r.Without("elasticity.G_VRH", "elasticity.K_VRH", "missing.path")
	assert.False(t, out.Has("elasticity.K_VRH"))
	v, ok := out.Float("elasticity.G_VRH")
	require.True(t, ok)
	assert.Equal(t, 5.0, v)
	assert.True(t, out.Has("density"))
	assert.True(t, r.Has("elasticity.K_VRH"))
	assert.Equal(t, "mp-2", out.ID())
}
