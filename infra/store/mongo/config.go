package mongo

import (
	"fmt"
	"time"
)

// Config holds the MongoDB connection settings of the record store.
type Config struct {
	URI        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
	IDField    string `json:"id_field"`
	// UpdatedField names the "last updated" document field folded into the
	// fingerprint. Without it only the document count is tracked.
	UpdatedField string `json:"updated_field"`
	TimeoutMS    int    `json:"timeout_ms"`
}

func (c *Config) SetDefaults() {
	if c.Database == "" {
		c.Database = "optimanage"
	}
	if c.Collection == "" {
		c.Collection = "materials"
	}
	if c.UpdatedField == "" {
		c.UpdatedField = "last_updated"
	}
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 5000
	}
}

func (c Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("mongo: uri is required")
	}
	if c.Database == "" || c.Collection == "" {
		return fmt.Errorf("mongo: database and collection are required")
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("mongo: timeout_ms must not be negative")
	}
	return nil
}

func (c Config) timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
