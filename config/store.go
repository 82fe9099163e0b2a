package config

import (
	"fmt"

	"github.com/kilianp07/optimanage/core/record"
	"github.com/kilianp07/optimanage/core/store"
	"github.com/kilianp07/optimanage/infra/store/mongo"
)

// Record store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// StoreConfig selects the record store holding the dataset.
type StoreConfig struct {
	// Backend is one of memory, file, sqlite or mongo.
	Backend string `json:"backend"`
	// Path is the dataset file for the file backend and the database file
	// for sqlite.
	Path    string            `json:"path"`
	IDField string            `json:"id_field"`
	Mongo   mongo.Config      `json:"mongo"`
	Retry   store.RetryConfig `json:"retry"`
}

func (c *StoreConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = StoreFile
		if c.Path == "" {
			c.Backend = StoreMemory
		}
	}
	if c.IDField == "" {
		c.IDField = record.DefaultIDField
	}
	if c.Backend == StoreMongo {
		c.Mongo.SetDefaults()
		if c.Mongo.IDField == "" {
			c.Mongo.IDField = c.IDField
		}
	}
}

func (c StoreConfig) Validate() error {
	switch c.Backend {
	case StoreMemory:
	case StoreFile, StoreSQLite:
		if c.Path == "" {
			return fmt.Errorf("path is required for backend %s", c.Backend)
		}
	case StoreMongo:
		if err := c.Mongo.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Retry.MaxRetries < 0 || c.Retry.BackoffMS < 0 {
		return fmt.Errorf("retry settings must not be negative")
	}
	return nil
}
