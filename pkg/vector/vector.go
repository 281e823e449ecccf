// Package vector stores embedded document sections and serves similarity
// search over them. Two providers are supported: qdrant for production
// deployments and chromem for embedded, zero-dependency ones. Section content
// and metadata ride along as payload so retrieval needs no second lookup.
package vector

import (
	"context"
	"fmt"

	"github.com/curator-ai/curator/pkg/content"
)

// DefaultCollection is the collection holding document sections.
const DefaultCollection = "document_sections"

// Payload field names shared by all providers.
const (
	fieldUserID      = "user_id"
	fieldDocumentID  = "document_id"
	fieldSectionType = "section_type"
	fieldContent     = "content"
	fieldMetadata    = "metadata"
)

// Index persists and searches embedded sections.
type Index interface {
	// UpsertSection writes one section with its embedding.
	UpsertSection(ctx context.Context, sec *content.DocumentSection) error

	// DeleteDocument removes all sections belonging to one document.
	DeleteDocument(ctx context.Context, documentID string) error

	// Search returns sections ranked by similarity descending.
	Search(ctx context.Context, q Query) ([]Result, error)

	// Close releases provider resources.
	Close() error
}

// Query is one similarity search request.
type Query struct {
	// Vector is the embedded query text.
	Vector []float32

	// UserID scopes the search; only this user's sections match.
	UserID string

	// Threshold is the minimum similarity score. Zero or negative accepts
	// any score.
	Threshold float32

	// Limit truncates the result list.
	Limit int
}

// Result is one matched section.
type Result struct {
	SectionID   string
	DocumentID  string
	SectionType content.SourceType
	Content     string
	Metadata    map[string]any
	Score       float32
}

// Config configures the vector index provider.
type Config struct {
	// Type is the provider type: "qdrant" or "chromem".
	Type string `yaml:"type"`

	// Collection name. Default: "document_sections".
	Collection string `yaml:"collection,omitempty"`

	// Host and Port for qdrant.
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`

	// APIKey for authenticated qdrant.
	APIKey string `yaml:"api_key,omitempty"`

	// EnableTLS enables TLS for qdrant connections.
	EnableTLS bool `yaml:"enable_tls,omitempty"`

	// PersistPath enables chromem file persistence.
	PersistPath string `yaml:"persist_path,omitempty"`

	// Compress enables gzip compression for chromem persistence.
	Compress bool `yaml:"compress,omitempty"`

	// Dimension pins the embedding dimensionality for collection creation.
	Dimension int `yaml:"dimension,omitempty"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = "chromem"
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Port == 0 && c.Type == "qdrant" {
		c.Port = 6334
	}
	if c.Dimension <= 0 {
		c.Dimension = 1536
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Type {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("invalid vector index type %q (valid: qdrant, chromem)", c.Type)
	}
	if c.Type == "qdrant" && c.Host == "" {
		return fmt.Errorf("host is required for qdrant vector index")
	}
	return nil
}

// New creates a vector index from configuration.
func New(cfg Config) (Index, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vector index config: %w", err)
	}

	switch cfg.Type {
	case "qdrant":
		return NewQdrantIndex(cfg)
	case "chromem":
		return NewChromemIndex(cfg)
	default:
		return nil, fmt.Errorf("unsupported vector index type: %s", cfg.Type)
	}
}
