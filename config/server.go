package config

import "fmt"

// ServerConfig configures the HTTP API and the /metrics endpoint.
type ServerConfig struct {
	Address string `json:"address"`
	// Token, when set, must be sent as a bearer token to /api routes.
	Token string `json:"token"`
}

func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

func (c ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	return nil
}
