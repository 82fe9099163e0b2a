package ranklog

import (
	"fmt"
	"path/filepath"
)

// Config selects the ranking log backend.
type Config struct {
	// Backend is "jsonl", "sqlite" or empty to disable the log.
	Backend    string `json:"backend"`
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// Enabled reports whether a backend is configured.
func (c Config) Enabled() bool { return c.Backend != "" }

// Validate checks the backend name and path.
func (c Config) Validate() error {
	switch c.Backend {
	case "":
		return nil
	case "jsonl", "sqlite":
	default:
		return fmt.Errorf("ranklog: unknown backend %q", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("ranklog: path is required for backend %s", c.Backend)
	}
	return nil
}

// New opens the configured store. JSONL logs rotate when MaxSizeMB is set.
func New(c Config) (Store, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	var (
		s   Store
		err error
	)
	switch c.Backend {
	case "jsonl":
		if c.MaxSizeMB > 0 {
			s, err = NewRotatingJSONLStore(c.Path, c.MaxSizeMB, c.MaxBackups, c.MaxAgeDays)
		} else {
			s, err = NewJSONLStore(filepath.Clean(c.Path))
		}
	case "sqlite":
		s, err = NewSQLiteStore(c.Path)
	default:
		return nil, fmt.Errorf("ranklog: no backend configured")
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}
