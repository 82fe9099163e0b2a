package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/optimanage/core/metrics"
	"github.com/kilianp07/optimanage/core/ranklog"
	"github.com/kilianp07/optimanage/infra/mqtt"
)

type Config struct {
	Store      StoreConfig       `json:"store"`
	Dispatch   DispatchConfig    `json:"dispatch"`
	Objectives []ObjectiveConfig `json:"objectives"`
	Metrics    metrics.Config    `json:"metrics"`
	Ranklog    ranklog.Config    `json:"ranklog"`
	Server     ServerConfig      `json:"server"`
	MQTT       mqtt.Config       `json:"mqtt"`
	Sentry     SentryConfig      `json:"sentry"`
	Logging    LoggingConfig     `json:"logging"`
}

// Load reads a YAML or JSON file, applies K_ prefixed environment overrides
// (K_STORE__PATH sets store.path), fills defaults and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section with its defaults.
func (c *Config) SetDefaults() {
	c.Store.SetDefaults()
	c.Dispatch.SetDefaults()
	for i := range c.Objectives {
		c.Objectives[i].SetDefaults()
	}
	c.Server.SetDefaults()
	c.Logging.SetDefaults()
	if c.MQTT.Enabled() && c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "optimanage"
	}
}

// Validate checks every section and joins the failures.
func (c Config) Validate() error {
	errs := []error{
		section("store", c.Store.Validate()),
		section("dispatch", c.Dispatch.Validate()),
		section("ranklog", c.Ranklog.Validate()),
		section("server", c.Server.Validate()),
		section("logging", c.Logging.Validate()),
	}
	seen := make(map[string]bool, len(c.Objectives))
	for i, o := range c.Objectives {
		errs = append(errs, section(fmt.Sprintf("objectives[%d]", i), o.Validate()))
		if id := o.ID(); id != "" {
			if seen[id] {
				errs = append(errs, fmt.Errorf("objectives[%d]: duplicate id %q", i, id))
			}
			seen[id] = true
		}
	}
	return errors.Join(errs...)
}

func section(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
