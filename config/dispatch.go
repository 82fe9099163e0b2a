package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/optimanage/core/dispatch"
)

// DispatchConfig holds the dispatcher settings and the ranking schedule of
// the service loop.
type DispatchConfig struct {
	Concurrency int     `json:"concurrency"`
	StoreQPS    float64 `json:"store_qps"`
	StoreBurst  int     `json:"store_burst"`
	// TopN is the number of workflows requested per ranking.
	TopN            int `json:"top_n"`
	IntervalSeconds int `json:"interval_seconds"`
}

func (c *DispatchConfig) SetDefaults() {
	if c.TopN == 0 {
		c.TopN = 10
	}
	if c.IntervalSeconds == 0 {
		c.IntervalSeconds = 300
	}
}

func (c DispatchConfig) Validate() error {
	if c.Concurrency < 0 || c.StoreBurst < 0 || c.StoreQPS < 0 {
		return fmt.Errorf("concurrency, store_qps and store_burst must not be negative")
	}
	if c.TopN < 0 {
		return fmt.Errorf("top_n must not be negative")
	}
	if c.IntervalSeconds < 0 {
		return fmt.Errorf("interval_seconds must not be negative")
	}
	return nil
}

// Core returns the settings consumed by the dispatcher itself.
func (c DispatchConfig) Core() dispatch.Config {
	return dispatch.Config{Concurrency: c.Concurrency, StoreQPS: c.StoreQPS, StoreBurst: c.StoreBurst}
}

// Interval returns the delay between two scheduled rankings.
func (c DispatchConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
