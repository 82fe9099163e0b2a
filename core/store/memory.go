package store

import (
	"context"
	"strconv"
	"sync"

	"github.com/kilianp07/optimanage/core/record"
)

// MemoryStore keeps records in memory in insertion order. Every write bumps a
// revision counter used as fingerprint.
type MemoryStore struct {
	mu       sync.RWMutex
	order    []string
	data     map[string]record.Record
	revision uint64
}

// NewMemoryStore returns a store holding the given records.
func NewMemoryStore(recs ...record.Record) *MemoryStore {
	s := &MemoryStore{data: map[string]record.Record{}}
	for _, r := range recs {
		s.put(r)
	}
	return s
}

// Put inserts or replaces records.
func (s *MemoryStore) Put(recs ...record.Record) {
	s.mu.Lock()
	for _, r := range recs {
		s.put(r)
	}
	s.mu.Unlock()
}

func (s *MemoryStore) put(r record.Record) {
	if _, ok := s.data[r.ID()]; !ok {
		s.order = append(s.order, r.ID())
	}
	s.data[r.ID()] = r
	s.revision++
}

// Delete removes the records with the given identifiers.
func (s *MemoryStore) Delete(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.data[id]; !ok {
			continue
		}
		delete(s.data, id)
		for i, o := range s.order {
			if o == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		s.revision++
	}
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// All returns every record in insertion order.
func (s *MemoryStore) All() []record.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]record.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.data[id])
	}
	return out
}

// Query implements RecordStore.
func (s *MemoryStore) Query(ctx context.Context, c Criteria, properties []string) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []record.Record
	for _, id := range s.order {
		r := s.data[id]
		if Match(c, r) {
			out = append(out, project(r, properties))
		}
	}
	return out, nil
}

// Fingerprint implements RecordStore.
func (s *MemoryStore) Fingerprint(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return strconv.FormatUint(s.revision, 10), nil
}
