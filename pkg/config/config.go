// Package config loads and validates the curator configuration.
//
// Configuration is a single YAML document composing the per-component
// configs. String values support ${VAR} and ${VAR:-default} environment
// expansion, so secrets like API keys stay out of config files.
package config

import (
	"fmt"

	"github.com/curator-ai/curator/pkg/chunking"
	"github.com/curator-ai/curator/pkg/embedders"
	"github.com/curator-ai/curator/pkg/logger"
	"github.com/curator-ai/curator/pkg/observability"
	"github.com/curator-ai/curator/pkg/retrieval"
	"github.com/curator-ai/curator/pkg/store"
	"github.com/curator-ai/curator/pkg/vector"
)

// Config is the root configuration document.
type Config struct {
	Logger    logger.Config        `yaml:"logger,omitempty"`
	Embedder  embedders.Config     `yaml:"embedder,omitempty"`
	Vector    vector.Config        `yaml:"vector,omitempty"`
	Store     store.Config         `yaml:"store,omitempty"`
	Chunking  chunking.Config      `yaml:"chunking,omitempty"`
	Retrieval retrieval.Config     `yaml:"retrieval,omitempty"`
	Metrics   observability.Config `yaml:"metrics,omitempty"`
	Server    ServerConfig         `yaml:"server,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Host to bind. Default: 127.0.0.1.
	Host string `yaml:"host,omitempty"`

	// Port to listen on. Default: 8420.
	Port int `yaml:"port,omitempty"`
}

// SetDefaults applies default values.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8420
	}
}

// Validate checks the configuration for errors.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Port)
	}
	return nil
}

// Address returns the host:port listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults applies defaults to every component config.
func (c *Config) SetDefaults() {
	c.Logger.SetDefaults()
	c.Embedder.SetDefaults()
	c.Vector.SetDefaults()
	c.Store.SetDefaults()
	c.Chunking.SetDefaults()
	c.Retrieval.SetDefaults()
	c.Server.SetDefaults()
}

// Validate checks every component config.
func (c *Config) Validate() error {
	if err := c.Logger.Validate(); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if err := c.Embedder.Validate(); err != nil {
		return fmt.Errorf("embedder: %w", err)
	}
	if err := c.Vector.Validate(); err != nil {
		return fmt.Errorf("vector: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Chunking.Validate(); err != nil {
		return fmt.Errorf("chunking: %w", err)
	}
	if err := c.Retrieval.Validate(); err != nil {
		return fmt.Errorf("retrieval: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
