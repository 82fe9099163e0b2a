package ranklog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists ranking entries to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS rankings (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT,
        ts INTEGER,
        partial INTEGER,
        entry TEXT
    );
    CREATE TABLE IF NOT EXISTS ranking_materials (
        ranking_seq INTEGER,
        material_id TEXT
    );
    CREATE INDEX IF NOT EXISTS idx_ranking_materials ON ranking_materials(material_id);`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Append writes the entry and indexes its material ids.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	partial := 0
	if e.Partial() {
		partial = 1
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO rankings (id, ts, partial, entry) VALUES (?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixNano(), partial, string(b))
	if err != nil {
		return err
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, rw := range e.Entries {
		id := rw.Instance.MaterialID
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ranking_materials (ranking_seq, material_id) VALUES (?, ?)`, seq, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Query returns entries matching q in chronological order.
func (s *SQLiteStore) Query(ctx context.Context, q Query) ([]Entry, error) {
	var args []any
	query := `SELECT entry FROM rankings r WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.UnixNano())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.UnixNano())
	}
	if q.MaterialID != "" {
		query += ` AND EXISTS (SELECT 1 FROM ranking_materials m WHERE m.ranking_seq = r.seq AND m.material_id = ?)`
		args = append(args, q.MaterialID)
	}
	if q.Limit > 0 {
		query += ` ORDER BY ts DESC, seq DESC LIMIT ?`
		args = append(args, q.Limit)
	} else {
		query += ` ORDER BY ts, seq`
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []Entry
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("unmarshal entry: %w", err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if q.Limit > 0 {
		for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
			res[i], res[j] = res[j], res[i]
		}
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }
