// Package ingest accepts content items from connected sources and hands them
// to the processing pipeline.
//
// Ingestion is the write path: resolve the source identity, drop recent
// duplicates by content hash, persist the raw document and process it. A
// duplicate within the dedup window is skipped silently so connectors can
// re-deliver without creating duplicate sections.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curator-ai/curator/pkg/content"
	"github.com/curator-ai/curator/pkg/processor"
	"github.com/curator-ai/curator/pkg/store"
)

// DefaultDedupWindow bounds how far back duplicate content hashes are checked.
const DefaultDedupWindow = 24 * time.Hour

// IngestError wraps a failed ingestion.
type IngestError struct {
	SourceName string
	Err        error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest for source %q failed: %v", e.SourceName, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Item is one piece of content delivered by a connector.
type Item struct {
	// UserID owns the resulting document and its sections.
	UserID string

	// SourceType selects the chunking strategy downstream.
	SourceType content.SourceType

	// SourceName identifies the source within (user, type), e.g. a feed URL
	// or channel name.
	SourceName string

	// SourceConfig is connector-specific source configuration, stored on
	// first sight and updated on re-delivery.
	SourceConfig map[string]any

	// Title is an optional human-readable label.
	Title string

	// Content is the raw text body.
	Content string

	// Metadata travels with the document into its sections.
	Metadata map[string]any
}

func (i *Item) validate() error {
	if i.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if err := i.SourceType.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(i.SourceName) == "" {
		return fmt.Errorf("source name is required")
	}
	return nil
}

// Result reports what happened to one ingested item.
type Result struct {
	// DocumentID is the persisted document, empty when Skipped.
	DocumentID string

	// Sections is the number of sections indexed.
	Sections int

	// Skipped is true when the item was a recent duplicate.
	Skipped bool
}

// Ingestor runs the write path of the pipeline.
type Ingestor struct {
	store       store.Store
	processor   *processor.Processor
	dedupWindow time.Duration
}

// New creates an ingestor. A non-positive dedupWindow uses DefaultDedupWindow.
func New(st store.Store, proc *processor.Processor, dedupWindow time.Duration) *Ingestor {
	if dedupWindow <= 0 {
		dedupWindow = DefaultDedupWindow
	}
	return &Ingestor{
		store:       st,
		processor:   proc,
		dedupWindow: dedupWindow,
	}
}

// Ingest persists one item and processes it into sections.
func (in *Ingestor) Ingest(ctx context.Context, item Item) (*Result, error) {
	if err := item.validate(); err != nil {
		return nil, &IngestError{SourceName: item.SourceName, Err: err}
	}

	src, err := in.store.UpsertSource(ctx, &content.ContentSource{
		UserID: item.UserID,
		Type:   item.SourceType,
		Name:   item.SourceName,
		Config: item.SourceConfig,
	})
	if err != nil {
		return nil, &IngestError{SourceName: item.SourceName, Err: err}
	}

	hash := store.ContentHash(item.Content)
	dup, err := in.store.HasRecentDocument(ctx, src.ID, hash, time.Now().Add(-in.dedupWindow))
	if err != nil {
		return nil, &IngestError{SourceName: item.SourceName, Err: err}
	}
	if dup {
		slog.Debug("Skipping duplicate content",
			"source", src.ID,
			"source_name", src.Name,
			"hash", hash[:12])
		return &Result{Skipped: true}, nil
	}

	doc, err := in.store.InsertDocument(ctx, &content.RawDocument{
		SourceID: src.ID,
		Title:    item.Title,
		Content:  item.Content,
		Metadata: item.Metadata,
	})
	if err != nil {
		return nil, &IngestError{SourceName: item.SourceName, Err: err}
	}

	sections, err := in.processor.Process(ctx, doc.ID)
	if err != nil {
		// The document stays persisted and unprocessed; a later Process
		// call can pick it up.
		return nil, &IngestError{SourceName: item.SourceName, Err: err}
	}

	return &Result{DocumentID: doc.ID, Sections: sections}, nil
}
