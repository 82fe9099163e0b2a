package store

import (
	"context"
	"errors"

	"github.com/kilianp07/optimanage/core/record"
)

// ErrUnavailable is returned when the store cannot be reached. Implementations
// wrap the underlying cause so errors.Is(err, ErrUnavailable) holds.
var ErrUnavailable = errors.New("record store unavailable")

// Criteria selects records by property presence and identifier membership.
type Criteria struct {
	// Exists lists paths that must all be present.
	Exists []string
	// AnyMissing lists paths of which at least one must be absent. An empty
	// list places no constraint.
	AnyMissing []string
	// IDs restricts the result to the given identifiers when non-empty.
	IDs []string
}

// RecordStore is the dataset abstraction consumed by the dispatcher.
type RecordStore interface {
	// Query returns the records matching c, projected to properties. An
	// empty properties slice returns full records.
	Query(ctx context.Context, c Criteria, properties []string) ([]record.Record, error)
	// Fingerprint returns a token that changes whenever the content changes.
	Fingerprint(ctx context.Context) (string, error)
}

// Match reports whether rec satisfies c.
func Match(c Criteria, rec record.Record) bool {
	for _, p := range c.Exists {
		if !rec.Has(p) {
			return false
		}
	}
	if len(c.AnyMissing) > 0 {
		missing := false
		for _, p := range c.AnyMissing {
			if !rec.Has(p) {
				missing = true
				break
			}
		}
		if !missing {
			return false
		}
	}
	if len(c.IDs) > 0 {
		found := false
		for _, id := range c.IDs {
			if id == rec.ID() {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func project(rec record.Record, properties []string) record.Record {
	if len(properties) == 0 {
		return rec
	}
	return rec.Project(properties)
}
