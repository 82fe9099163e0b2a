// Package mongo serves the record dataset from a MongoDB collection.
package mongo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/store"
)

// Store implements store.RecordStore over one collection. Criteria are
// translated to $exists, $or and $in filters.
type Store struct {
	client  *mongod.Client
	col     *mongod.Collection
	idField string
	updated string
	timeout time.Duration
}

var _ store.RecordStore = (*Store)(nil)

// Open connects to MongoDB and pings the server.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := mongod.Connect(options.Client().ApplyURI(cfg.URI).SetTimeout(cfg.timeout()))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, unavailable(ctx, "ping", err)
	}
	idField := cfg.IDField
	if idField == "" {
		idField = record.DefaultIDField
	}
	return &Store{
		client:  client,
		col:     client.Database(cfg.Database).Collection(cfg.Collection),
		idField: idField,
		updated: cfg.UpdatedField,
		timeout: cfg.timeout(),
	}, nil
}

// Query implements store.RecordStore.
func (s *Store) Query(ctx context.Context, c store.Criteria, properties []string) ([]record.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if p := projection(s.idField, c, properties); p != nil {
		opts.SetProjection(p)
	}
	cur, err := s.col.Find(ctx, Filter(s.idField, c), opts)
	if err != nil {
		return nil, unavailable(ctx, "find", err)
	}
	defer func() { _ = cur.Close(context.Background()) }()
	var out []record.Record
	for cur.Next(ctx) {
		var raw bson.D
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("mongo: decode: %w", err)
		}
		doc, _ := normalize(raw).(map[string]any)
		if s.idField != "_id" {
			delete(doc, "_id")
		}
		rec, err := record.FromDocument(doc, s.idField)
		if err != nil {
			return nil, err
		}
		if !store.Match(c, rec) {
			continue
		}
		if len(properties) > 0 {
			rec = rec.Project(properties)
		}
		out = append(out, rec)
	}
	if err := cur.Err(); err != nil {
		return nil, unavailable(ctx, "cursor", err)
	}
	return out, nil
}

// Fingerprint hashes the document count and the latest value of the
// configured "last updated" field.
func (s *Store) Fingerprint(ctx context.Context) (string, error) {
	n, err := s.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return "", unavailable(ctx, "count", err)
	}
	var latest any
	if s.updated != "" {
		opts := options.FindOne().
			SetSort(bson.D{{Key: s.updated, Value: -1}}).
			SetProjection(bson.M{s.updated: 1})
		var raw bson.D
		err := s.col.FindOne(ctx, bson.M{s.updated: bson.M{"$exists": true}}, opts).Decode(&raw)
		switch {
		case errors.Is(err, mongod.ErrNoDocuments):
		case err != nil:
			return "", unavailable(ctx, "latest update", err)
		default:
			doc, _ := normalize(raw).(map[string]any)
			latest, _ = record.Lookup(doc, s.updated)
		}
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%v", n, latest)))
	return hex.EncodeToString(sum[:]), nil
}

// Put upserts records keyed by the identifier field and stamps the update
// field with the current time.
func (s *Store) Put(ctx context.Context, recs ...record.Record) error {
	for _, r := range recs {
		doc := r.Document(s.idField)
		if s.updated != "" {
			doc[s.updated] = time.Now().UTC()
		}
		_, err := s.col.ReplaceOne(ctx, bson.M{s.idField: r.ID()}, doc, options.Replace().SetUpsert(true))
		if err != nil {
			return unavailable(ctx, "replace", err)
		}
	}
	return nil
}

// Delete removes the records with the given identifiers.
func (s *Store) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.col.DeleteMany(ctx, bson.M{s.idField: bson.M{"$in": ids}}); err != nil {
		return unavailable(ctx, "delete", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Filter translates c into a MongoDB filter document.
func Filter(idField string, c store.Criteria) bson.M {
	var and bson.A
	for _, p := range c.Exists {
		and = append(and, bson.M{p: bson.M{"$exists": true}})
	}
	if len(c.AnyMissing) > 0 {
		or := make(bson.A, 0, len(c.AnyMissing))
		for _, p := range c.AnyMissing {
			or = append(or, bson.M{p: bson.M{"$exists": false}})
		}
		and = append(and, bson.M{"$or": or})
	}
	if len(c.IDs) > 0 {
		and = append(and, bson.M{idField: bson.M{"$in": c.IDs}})
	}
	switch len(and) {
	case 0:
		return bson.M{}
	case 1:
		return and[0].(bson.M)
	default:
		return bson.M{"$and": and}
	}
}

// projection keeps the identifier, the requested properties and the paths
// the criteria inspect, dropping paths already covered by a parent path.
// It returns nil when full documents are wanted.
func projection(idField string, c store.Criteria, properties []string) bson.M {
	if len(properties) == 0 {
		return nil
	}
	paths := append([]string{idField}, properties...)
	paths = append(paths, c.Exists...)
	paths = append(paths, c.AnyMissing...)
	sort.Strings(paths)
	p := bson.M{}
	var kept []string
	for _, path := range paths {
		covered := false
		for _, k := range kept {
			if path == k || strings.HasPrefix(path, k+".") {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		kept = append(kept, path)
		p[path] = 1
	}
	if idField != "_id" {
		p["_id"] = 0
	}
	return p
}

// normalize converts driver values into the plain maps and slices records
// hold.
func normalize(v any) any {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]any, len(t))
		for _, e := range t {
			m[e.Key] = normalize(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = normalize(val)
		}
		return m
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	case bson.ObjectID:
		return t.Hex()
	case bson.DateTime:
		return t.Time().UTC()
	default:
		return v
	}
}

func unavailable(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if mongod.IsNetworkError(err) || mongod.IsTimeout(err) || errors.Is(err, mongod.ErrClientDisconnected) {
		return fmt.Errorf("mongo: %s: %w: %v", op, store.ErrUnavailable, err)
	}
	return fmt.Errorf("mongo: %s: %w", op, err)
}
