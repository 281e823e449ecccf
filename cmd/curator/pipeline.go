package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/curator-ai/curator/pkg/config"
	"github.com/curator-ai/curator/pkg/embedders"
	"github.com/curator-ai/curator/pkg/ingest"
	"github.com/curator-ai/curator/pkg/observability"
	"github.com/curator-ai/curator/pkg/processor"
	"github.com/curator-ai/curator/pkg/retrieval"
	"github.com/curator-ai/curator/pkg/store"
	"github.com/curator-ai/curator/pkg/vector"
)

// pipeline holds the shared clients and components. Each client is built once
// here and injected into every component that needs it.
type pipeline struct {
	store     store.Store
	index     vector.Index
	embedder  embedders.Provider
	metrics   *observability.PipelineMetrics
	processor *processor.Processor
	ingestor  *ingest.Ingestor
	engine    *retrieval.Engine
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*pipeline, error) {
	metrics, err := observability.InitMetrics(ctx, cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	emb, err := embedders.New(cfg.Embedder)
	if err != nil {
		return nil, err
	}

	// Pin the collection dimension to the embedder when the config left it
	// unset, so both agree.
	vcfg := cfg.Vector
	if vcfg.Dimension == 0 {
		vcfg.Dimension = emb.Dimension()
	}
	idx, err := vector.New(vcfg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, err
	}

	proc := processor.New(st, idx, emb, processor.Options{
		Chunking: cfg.Chunking,
		Metrics:  metrics,
	})

	eng, err := retrieval.NewEngine(idx, emb, cfg.Retrieval, metrics)
	if err != nil {
		return nil, err
	}

	slog.Debug("Pipeline ready",
		"embedder", emb.ModelName(),
		"vector", vcfg.Type,
		"store", cfg.Store.Driver)

	return &pipeline{
		store:     st,
		index:     idx,
		embedder:  emb,
		metrics:   metrics,
		processor: proc,
		ingestor:  ingest.New(st, proc, 0),
		engine:    eng,
	}, nil
}

func (p *pipeline) Close() {
	if err := p.store.Close(); err != nil {
		slog.Warn("Failed to close store", "error", err)
	}
	if err := p.index.Close(); err != nil {
		slog.Warn("Failed to close vector index", "error", err)
	}
	if err := p.embedder.Close(); err != nil {
		slog.Warn("Failed to close embedder", "error", err)
	}
}
