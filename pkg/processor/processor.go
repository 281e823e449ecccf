// Package processor turns raw documents into embedded, indexed sections.
//
// Processing is the single state transition in a document's life: load the
// document and its source, chunk by source type, embed each chunk in order,
// index the sections, stamp the document processed. Chunks are embedded
// sequentially, one call at a time, to bound provider rate consumption and
// memory.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/curator-ai/curator/pkg/chunking"
	"github.com/curator-ai/curator/pkg/content"
	"github.com/curator-ai/curator/pkg/embedders"
	"github.com/curator-ai/curator/pkg/observability"
	"github.com/curator-ai/curator/pkg/retry"
	"github.com/curator-ai/curator/pkg/store"
	"github.com/curator-ai/curator/pkg/vector"
)

// ProcessingError wraps a failure at a specific stage of processing.
type ProcessingError struct {
	DocumentID string
	Stage      string // "load", "chunk", "embed", "index", "stamp"
	Err        error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing document %s failed at %s: %v", e.DocumentID, e.Stage, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// Options tunes the processor.
type Options struct {
	// Chunking bounds chunk sizes.
	Chunking chunking.Config

	// Retry governs transient embedding failures.
	Retry retry.Config

	// EmbedTimeout bounds a single embedding call. Default: 30s.
	EmbedTimeout time.Duration

	// DocumentTimeout bounds processing a whole document. Default: 5m.
	DocumentTimeout time.Duration

	// Metrics receives pipeline measurements (optional).
	Metrics *observability.PipelineMetrics
}

// Processor orchestrates chunking, embedding and indexing.
type Processor struct {
	store    store.Store
	index    vector.Index
	embedder embedders.Provider
	retryer  *retry.Retryer
	opts     Options

	// group collapses concurrent Process calls for the same document id;
	// together with the store's conditional stamp it keeps a document from
	// being sectioned twice.
	group singleflight.Group
}

// New creates a processor.
func New(st store.Store, idx vector.Index, emb embedders.Provider, opts Options) *Processor {
	opts.Chunking.SetDefaults()
	if opts.EmbedTimeout <= 0 {
		opts.EmbedTimeout = 30 * time.Second
	}
	if opts.DocumentTimeout <= 0 {
		opts.DocumentTimeout = 5 * time.Minute
	}

	return &Processor{
		store:    st,
		index:    idx,
		embedder: emb,
		retryer:  retry.New(opts.Retry),
		opts:     opts,
	}
}

// Process chunks, embeds and indexes one raw document.
//
// Returns the number of sections created. Empty content is not an error: the
// document is stamped processed with zero sections. Any embedding or indexing
// failure aborts the remaining chunks; sections already indexed stay behind,
// which is the documented partial-state limitation.
func (p *Processor) Process(ctx context.Context, documentID string) (int, error) {
	v, err, _ := p.group.Do(documentID, func() (any, error) {
		return p.process(ctx, documentID)
	})
	if err != nil {
		p.opts.Metrics.RecordProcessingError(ctx)
		return 0, err
	}
	return v.(int), nil
}

func (p *Processor) process(ctx context.Context, documentID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.DocumentTimeout)
	defer cancel()

	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return 0, &ProcessingError{DocumentID: documentID, Stage: "load", Err: err}
	}
	if doc.Processed() {
		return 0, &ProcessingError{DocumentID: documentID, Stage: "load", Err: store.ErrAlreadyProcessed}
	}

	src, err := p.store.GetSource(ctx, doc.SourceID)
	if err != nil {
		return 0, &ProcessingError{DocumentID: documentID, Stage: "load", Err: err}
	}

	chunker, err := chunking.ForSourceType(src.Type, p.opts.Chunking)
	if err != nil {
		return 0, &ProcessingError{DocumentID: documentID, Stage: "chunk", Err: err}
	}

	chunks, err := chunker.Chunk(doc.Content, doc.Metadata)
	if err != nil {
		return 0, &ProcessingError{DocumentID: documentID, Stage: "chunk", Err: err}
	}

	// Clear sections a previously aborted run may have left behind, so a
	// retried document never double-indexes.
	if err := p.index.DeleteDocument(ctx, doc.ID); err != nil {
		return 0, &ProcessingError{DocumentID: documentID, Stage: "index", Err: err}
	}

	if len(chunks) == 0 {
		if err := p.store.MarkProcessed(ctx, doc.ID, time.Now()); err != nil {
			return 0, &ProcessingError{DocumentID: documentID, Stage: "stamp", Err: err}
		}
		slog.Debug("Document had no indexable content", "document", doc.ID)
		p.opts.Metrics.RecordDocumentProcessed(ctx, 0)
		return 0, nil
	}

	for _, chunk := range chunks {
		embedding, err := p.embedChunk(ctx, chunk.Content)
		if err != nil {
			return 0, &ProcessingError{DocumentID: documentID, Stage: "embed", Err: err}
		}

		section := &content.DocumentSection{
			ID:          uuid.NewString(),
			DocumentID:  doc.ID,
			UserID:      src.UserID,
			SectionType: src.Type,
			Content:     chunk.Content,
			Metadata:    chunk.Metadata,
			Embedding:   embedding,
		}
		if err := p.index.UpsertSection(ctx, section); err != nil {
			return 0, &ProcessingError{DocumentID: documentID, Stage: "index", Err: err}
		}
	}

	if err := p.store.MarkProcessed(ctx, doc.ID, time.Now()); err != nil {
		return 0, &ProcessingError{DocumentID: documentID, Stage: "stamp", Err: err}
	}

	slog.Info("Processed document",
		"document", doc.ID,
		"source_type", src.Type,
		"sections", len(chunks))
	p.opts.Metrics.RecordDocumentProcessed(ctx, len(chunks))

	return len(chunks), nil
}

// embedChunk embeds one chunk with a per-call timeout, retrying transient
// provider failures only.
func (p *Processor) embedChunk(ctx context.Context, text string) ([]float32, error) {
	var embedding []float32

	err := p.retryer.Do(ctx, "embed_chunk", func() error {
		embedCtx, cancel := context.WithTimeout(ctx, p.opts.EmbedTimeout)
		defer cancel()

		start := time.Now()
		vec, err := p.embedder.Embed(embedCtx, text)
		p.opts.Metrics.RecordEmbedding(ctx, time.Since(start))
		if err != nil {
			return err
		}
		embedding = vec
		return nil
	})
	if err != nil {
		return nil, err
	}

	if want := p.embedder.Dimension(); want > 0 && len(embedding) != want {
		return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(embedding), want)
	}
	return embedding, nil
}

// AlreadyProcessed reports whether err means the document was processed before.
func AlreadyProcessed(err error) bool {
	return errors.Is(err, store.ErrAlreadyProcessed)
}
