package ranklog

import (
	"context"
	"time"

	"github.com/kilianp07/optimanage/core/dispatch"
)

// Entry is one persisted ranking.
type Entry struct {
	ID        string                    `json:"id"`
	Timestamp time.Time                 `json:"timestamp"`
	Requested int                       `json:"requested"`
	Weights   map[string]float64        `json:"weights,omitempty"`
	Entries   []dispatch.RankedWorkflow `json:"entries"`
	Errors    []string                  `json:"errors,omitempty"`
}

// FromRanking builds the log entry of a ranking requested with size n.
func FromRanking(r dispatch.Ranking, n int, weights map[string]float64) Entry {
	return Entry{
		ID:        r.ID,
		Timestamp: r.CreatedAt,
		Requested: n,
		Weights:   weights,
		Entries:   r.Entries,
		Errors:    r.ErrorMessages(),
	}
}

// Partial reports whether the logged ranking had failing objectives.
func (e Entry) Partial() bool { return len(e.Errors) > 0 }

// Query defines filters for retrieving entries. Zero fields do not filter.
type Query struct {
	Start      time.Time
	End        time.Time
	MaterialID string
	// Limit keeps the most recent entries when positive.
	Limit int
}

// Store persists ranking entries and supports querying them in
// chronological order.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Query(ctx context.Context, q Query) ([]Entry, error)
	Close() error
}

// Latest returns the most recent entry of s.
func Latest(ctx context.Context, s Store) (Entry, bool, error) {
	out, err := s.Query(ctx, Query{Limit: 1})
	if err != nil || len(out) == 0 {
		return Entry{}, false, err
	}
	return out[len(out)-1], true, nil
}

func (q Query) matches(e Entry) bool {
	if !q.Start.IsZero() && e.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && e.Timestamp.After(q.End) {
		return false
	}
	if q.MaterialID == "" {
		return true
	}
	for _, rw := range e.Entries {
		if rw.Instance.MaterialID == q.MaterialID {
			return true
		}
	}
	return false
}

func (q Query) limit(out []Entry) []Entry {
	if q.Limit > 0 && len(out) > q.Limit {
		return out[len(out)-q.Limit:]
	}
	return out
}
