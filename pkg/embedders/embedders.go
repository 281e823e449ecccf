// Package embedders turns text into fixed-length vectors via an external
// embedding model. Providers are stateless HTTP adapters; the embedding
// model and dimensionality must stay constant across a corpus or similarity
// search is corrupted, so both are pinned in configuration.
package embedders

import (
	"context"
	"fmt"
	"net/http"
)

// Provider is the embedding provider adapter.
type Provider interface {
	// Embed returns the embedding vector for text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the vector dimensionality produced by the model.
	Dimension() int

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases provider resources.
	Close() error
}

// ProviderError is returned when the embedding provider responds with a
// non-success status or an unparseable body.
type ProviderError struct {
	Provider   string
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("[%s] %s failed", e.Provider, e.Operation)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Temporary reports whether the failure is worth retrying: rate limits and
// server-side errors are, client errors (bad input, bad key) are not.
func (e *ProviderError) Temporary() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if e.StatusCode >= 500 {
		return true
	}
	return e.StatusCode == 0 && e.Err != nil
}

// Config configures an embedding provider.
type Config struct {
	// Type is the provider type: "openai", "ollama", "cohere".
	Type string `yaml:"type"`

	// Model is the embedding model identifier.
	Model string `yaml:"model,omitempty"`

	// Host overrides the provider base URL.
	Host string `yaml:"host,omitempty"`

	// APIKey for authenticated providers.
	APIKey string `yaml:"api_key,omitempty"`

	// Dimension pins the expected vector dimensionality.
	Dimension int `yaml:"dimension,omitempty"`

	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout,omitempty"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = "openai"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Type {
	case "openai", "ollama", "cohere":
	default:
		return fmt.Errorf("invalid embedder type %q (valid: openai, ollama, cohere)", c.Type)
	}
	if c.Type != "ollama" && c.APIKey == "" {
		return fmt.Errorf("api_key is required for %s embedder", c.Type)
	}
	return nil
}

// New creates an embedding provider from configuration.
func New(cfg Config) (Provider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedder config: %w", err)
	}

	switch cfg.Type {
	case "openai":
		return NewOpenAIProvider(cfg)
	case "ollama":
		return NewOllamaProvider(cfg)
	case "cohere":
		return NewCohereProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedder type: %s", cfg.Type)
	}
}
