package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/optimanage/core/record"
)

func sampleRecords() []record.Record {
	return []record.Record{
		record.New("mp-1", map[string]any{"p_in": 1.0, "p_out": 2.0}),
		record.New("mp-2", map[string]any{"p_in": 2.0}),
		record.New("mp-3", map[string]any{"p_out": 3.0}),
		record.New("mp-4", map[string]any{"p_in": 4.0, "p_out": 8.0, "extra": "x"}),
	}
}

func ids(recs []record.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID()
	}
	return out
}

func TestMemoryStoreQuery(t *testing.T) {
	s := NewMemoryStore(sampleRecords()...)
	ctx := context.Background()

	train, err := s.Query(ctx, Criteria{Exists: []string{"p_in", "p_out"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"mp-1", "mp-4"}, ids(train))

	cand, err := s.Query(ctx, Criteria{Exists: []string{"p_in"}, AnyMissing: []string{"p_out"}}, []string{"p_in"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mp-2"}, ids(cand))

	byID, err := s.Query(ctx, Criteria{IDs: []string{"mp-3", "mp-4"}}, []string{"p_out"})
	require.NoError(t, err)
	assert.Equal(t, []string{"mp-3", "mp-4"}, ids(byID))
	assert.False(t, byID[1].Has("extra"), "projection drops unrequested properties")
}

func TestMemoryStoreFingerprint(t *testing.T) {
	s := NewMemoryStore(sampleRecords()...)
	ctx := context.Background()
	fp1, err := s.Fingerprint(ctx)
	require.NoError(t, err)
	fp2, _ := s.Fingerprint(ctx)
	assert.Equal(t, fp1, fp2)

	s.Put(record.New("mp-5", map[string]any{"p_in": 5.0}))
	fp3, _ := s.Fingerprint(ctx)
	assert.NotEqual(t, fp1, fp3)

	s.Delete("mp-5")
	fp4, _ := s.Fingerprint(ctx)
	assert.NotEqual(t, fp3, fp4)
	assert.Equal(t, 4, s.Len())

	s.Delete("unknown")
	fp5, _ := s.Fingerprint(ctx)
	assert.Equal(t, fp4, fp5)
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	s := NewMemoryStore(sampleRecords()...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Query(ctx, Criteria{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[
		{"task_id": "mp-1", "elasticity.elastic_tensor": [[1, 2], [3, 4]]},
		{"task_id": "mp-2", "density": 3.1}
	]`), 0o644))
	s, err := LoadFile(jsonPath, "")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	all := s.All()
	assert.True(t, all[0].Has("elasticity.elastic_tensor"))

	yamlPath := filepath.Join(dir, "data.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("- id: a\n  elasticity:\n    G_VRH: 10\n- id: b\n"), 0o644))
	s, err = LoadFile(yamlPath, "id")
	require.NoError(t, err)
	all = s.All()
	require.Len(t, all, 2)
	g, ok := all[0].Float("elasticity.G_VRH")
	assert.True(t, ok)
	assert.Equal(t, 10.0, g)

	_, err = LoadFile(filepath.Join(dir, "data.txt"), "")
	assert.Error(t, err)
}

func TestDecodeRecordsMissingID(t *testing.T) {
	_, err := DecodeRecords(strings.NewReader(`[{"p_in": 1}]`), "json", "")
	assert.Error(t, err)
}

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteFile(path, "", sampleRecords()))
	s, err := LoadFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"mp-1", "mp-2", "mp-3", "mp-4"}, ids(s.All()))
}
