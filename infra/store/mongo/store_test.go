package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/kilianp07/optimanage/core/store"
)

func TestFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, Filter("task_id", store.Criteria{}))

	assert.Equal(t, bson.M{"density": bson.M{"$exists": true}},
		Filter("task_id", store.Criteria{Exists: []string{"density"}}))

	got := Filter("task_id", store.Criteria{
		Exists:     []string{"density", "volume"},
		AnyMissing: []string{"elasticity.K_VRH", "elasticity.G_VRH"},
		IDs:        []string{"mp-1"},
	})
	want := bson.M{"$and": bson.A{
		bson.M{"density": bson.M{"$exists": true}},
		bson.M{"volume": bson.M{"$exists": true}},
		bson.M{"$or": bson.A{
			bson.M{"elasticity.K_VRH": bson.M{"$exists": false}},
			bson.M{"elasticity.G_VRH": bson.M{"$exists": false}},
		}},
		bson.M{"task_id": bson.M{"$in": []string{"mp-1"}}},
	}}
	assert.Equal(t, want, got)
}

func TestProjection(t *testing.T) {
	assert.Nil(t, projection("task_id", store.Criteria{}, nil))

	p := projection("task_id", store.Criteria{Exists: []string{"elasticity.K_VRH"}},
		[]string{"elasticity", "density"})
	assert.Equal(t, bson.M{"task_id": 1, "elasticity": 1, "density": 1, "_id": 0}, p)
}

func TestNormalize(t *testing.T) {
	oid := bson.NewObjectID()
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := normalize(bson.D{
		{Key: "_id", Value: oid},
		{Key: "elasticity", Value: bson.D{{Key: "K_VRH", Value: int32(100)}}},
		{Key: "sites", Value: bson.A{bson.D{{Key: "el", Value: "Fe"}}}},
		{Key: "last_updated", Value: bson.NewDateTimeFromTime(ts)},
	})
	assert.Equal(t, map[string]any{
		"_id":          oid.Hex(),
		"elasticity":   map[string]any{"K_VRH": int32(100)},
		"sites":        []any{map[string]any{"el": "Fe"}},
		"last_updated": ts,
	}, got)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	assert.Error(t, c.Validate())
	c.URI = "mongodb://localhost:27017"
	c.SetDefaults()
	assert.NoError(t, c.Validate())
	assert.Equal(t, "materials", c.Collection)
	assert.Equal(t, 5*time.Second, c.timeout())
}
