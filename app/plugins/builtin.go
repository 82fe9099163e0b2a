package plugins

import (
	"context"

	"github.com/kilianp07/optimanage/config"
	"github.com/kilianp07/optimanage/core/store"
	"github.com/kilianp07/optimanage/infra/store/mongo"
	"github.com/kilianp07/optimanage/infra/store/sqlite"
)

func init() {
	RegisterStore(config.StoreMemory, func(context.Context, config.StoreConfig) (store.RecordStore, error) {
		return store.NewMemoryStore(), nil
	})
	RegisterStore(config.StoreFile, func(_ context.Context, cfg config.StoreConfig) (store.RecordStore, error) {
		return store.LoadFile(cfg.Path, cfg.IDField)
	})
	RegisterStore(config.StoreSQLite, func(_ context.Context, cfg config.StoreConfig) (store.RecordStore, error) {
		return sqlite.Open(cfg.Path)
	})
	RegisterStore(config.StoreMongo, func(ctx context.Context, cfg config.StoreConfig) (store.RecordStore, error) {
		return mongo.Open(ctx, cfg.Mongo)
	})
}
