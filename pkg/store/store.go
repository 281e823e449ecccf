// Package store persists content sources and raw documents in a relational
// database. Embedded chunks live in the vector index (pkg/vector); this
// package owns the ingestion bookkeeping: source identity, document bodies,
// the processed-at stamp, and recent-duplicate checks.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/curator-ai/curator/pkg/content"
)

// Sentinel errors for missing references.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrSourceNotFound   = errors.New("content source not found")

	// ErrAlreadyProcessed is returned by MarkProcessed when the document
	// already carries a processed-at stamp. It is the store-level guard
	// against concurrent or repeated processing of the same document.
	ErrAlreadyProcessed = errors.New("document already processed")
)

// Store is the persistence collaborator for the ingestion pipeline.
type Store interface {
	// UpsertSource creates the source or, when (user, type, name) already
	// exists, updates its config and returns the existing row.
	UpsertSource(ctx context.Context, src *content.ContentSource) (*content.ContentSource, error)

	// GetSource returns a source by id, or ErrSourceNotFound.
	GetSource(ctx context.Context, id string) (*content.ContentSource, error)

	// InsertDocument persists a new raw document.
	InsertDocument(ctx context.Context, doc *content.RawDocument) (*content.RawDocument, error)

	// GetDocument returns a document by id, or ErrDocumentNotFound.
	GetDocument(ctx context.Context, id string) (*content.RawDocument, error)

	// MarkProcessed stamps the document's processed-at time. The update is
	// conditional on the stamp being absent; a second call returns
	// ErrAlreadyProcessed and a missing document ErrDocumentNotFound.
	MarkProcessed(ctx context.Context, documentID string, at time.Time) error

	// HasRecentDocument reports whether a document with the same content
	// hash was ingested for the source after the given time.
	HasRecentDocument(ctx context.Context, sourceID, contentHash string, since time.Time) (bool, error)

	// Close releases the underlying connection pool.
	Close() error
}

// StoreError wraps a failed persistence operation.
type StoreError struct {
	Operation string
	Message   string
	Err       error
}

func (e *StoreError) Error() string {
	msg := fmt.Sprintf("store %s: %s", e.Operation, e.Message)
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Config configures the relational store.
type Config struct {
	// Driver is the database driver: "postgres" or "sqlite3".
	Driver string `yaml:"driver"`

	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn"`

	// MaxOpenConns bounds the connection pool. Default: 10.
	MaxOpenConns int `yaml:"max_open_conns,omitempty"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Driver == "" {
		c.Driver = "sqlite3"
	}
	if c.DSN == "" && c.Driver == "sqlite3" {
		c.DSN = "file:curator.db?_fk=1"
	}
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 10
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid store driver %q (valid: postgres, sqlite3)", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("dsn is required for %s store", c.Driver)
	}
	return nil
}
