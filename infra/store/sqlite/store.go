// Package sqlite keeps the record dataset in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/store"
)

// Store implements store.RecordStore on SQLite. Documents are stored as JSON
// rows; identifier filters run in SQL and presence criteria run in Go with
// store.Match.
type Store struct {
	db *sql.DB
}

var _ store.RecordStore = (*Store)(nil)

// Open opens or creates the database at path and ensures schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps writes and the revision bump serialized.
	db.SetMaxOpenConns(1)
	schema := `CREATE TABLE IF NOT EXISTS records (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        doc TEXT NOT NULL
    );
    CREATE TABLE IF NOT EXISTS revision (
        k INTEGER PRIMARY KEY CHECK (k = 0),
        n INTEGER NOT NULL
    );
    INSERT OR IGNORE INTO revision (k, n) VALUES (0, 0);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &Store{db: db}, nil
}

// Put inserts or replaces records. Replaced records keep their position.
func (s *Store) Put(ctx context.Context, recs ...record.Record) error {
	if len(recs) == 0 {
		return nil
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO records (id, doc) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET doc = excluded.doc`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()
		for _, r := range recs {
			b, err := json.Marshal(r.Data())
			if err != nil {
				return fmt.Errorf("encode %s: %w", r.ID(), err)
			}
			if _, err := stmt.ExecContext(ctx, r.ID(), string(b)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the records with the given identifiers.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.write(ctx, func(tx *sql.Tx) error {
		q := `DELETE FROM records WHERE id IN (` + placeholders(len(ids)) + `)`
		_, err := tx.ExecContext(ctx, q, anys(ids)...)
		return err
	})
}

// write runs fn and bumps the revision in the same transaction.
func (s *Store) write(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable(err)
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE revision SET n = n + 1 WHERE k = 0`); err != nil {
		return err
	}
	return tx.Commit()
}

// Len returns the number of stored records.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// Query implements store.RecordStore.
func (s *Store) Query(ctx context.Context, c store.Criteria, properties []string) ([]record.Record, error) {
	q := `SELECT id, doc FROM records`
	var args []any
	if len(c.IDs) > 0 {
		q += ` WHERE id IN (` + placeholders(len(c.IDs)) + `)`
		args = anys(c.IDs)
	}
	q += ` ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable(err)
	}
	defer func() { _ = rows.Close() }()
	var out []record.Record
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		var data map[string]any
		if err := json.Unmarshal([]byte(doc), &data); err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		rec := record.New(id, data)
		if !store.Match(c, rec) {
			continue
		}
		if len(properties) > 0 {
			rec = rec.Project(properties)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err)
	}
	return out, nil
}

// Fingerprint implements store.RecordStore with the revision counter.
func (s *Store) Fingerprint(ctx context.Context) (string, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT n FROM revision WHERE k = 0`).Scan(&n); err != nil {
		return "", unavailable(err)
	}
	return strconv.FormatInt(n, 10), nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func unavailable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func anys(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
