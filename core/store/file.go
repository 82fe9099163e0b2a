package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/optimanage/core/record"
)

// LoadFile reads a JSON or YAML array of documents into a MemoryStore.
// Documents are keyed by idField.
func LoadFile(path, idField string) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	recs, err := DecodeRecords(f, ext, idField)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return NewMemoryStore(recs...), nil
}

// DecodeRecords decodes documents from r in the given format ("json", "yaml"
// or "yml").
func DecodeRecords(r io.Reader, format, idField string) ([]record.Record, error) {
	var docs []map[string]any
	switch strings.ToLower(format) {
	case "json":
		dec := json.NewDecoder(r)
		if err := dec.Decode(&docs); err != nil {
			return nil, err
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&docs); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported dataset format: %s", format)
	}
	recs := make([]record.Record, 0, len(docs))
	for i, d := range docs {
		rec, err := record.FromDocument(d, idField)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// WriteFile writes records as an array of documents keyed by idField. The
// format follows the extension: YAML for .yaml and .yml, JSON otherwise.
func WriteFile(path, idField string, recs []record.Record) error {
	docs := make([]map[string]any, 0, len(recs))
	for _, r := range recs {
		docs = append(docs, r.Document(idField))
	}
	var buf bytes.Buffer
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(docs); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "    ")
		if err := enc.Encode(docs); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
