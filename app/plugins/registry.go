package plugins

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kilianp07/optimanage/config"
	"github.com/kilianp07/optimanage/core/store"
	"github.com/kilianp07/optimanage/infra/logger"
)

// StoreFactory opens a record store backend from its configuration.
type StoreFactory func(ctx context.Context, cfg config.StoreConfig) (store.RecordStore, error)

var (
	mu     sync.RWMutex
	Stores = map[string]StoreFactory{}
)

func RegisterStore(name string, f StoreFactory) {
	mu.Lock()
	defer mu.Unlock()
	Stores[name] = f
}

// StoreBackends lists the registered backend names.
func StoreBackends() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(Stores))
	for n := range Stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// OpenStore opens the configured backend and wraps it with the retry policy
// when retries are enabled.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (store.RecordStore, error) {
	mu.RLock()
	f, ok := Stores[cfg.Backend]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	st, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", cfg.Backend, err)
	}
	if cfg.Retry.MaxRetries > 0 {
		return store.NewRetrying(st, cfg.Retry, logger.New("store")), nil
	}
	return st, nil
}
