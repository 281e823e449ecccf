// Package observability exposes pipeline metrics through an OpenTelemetry
// meter backed by the Prometheus exporter. The resulting registry is served
// by the HTTP layer at /metrics.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Config configures metrics collection.
type Config struct {
	Enabled bool `yaml:"enabled"`
}

// PipelineMetrics records ingestion and retrieval measurements.
//
// The zero value is a usable no-op, so components can always call through it
// without nil checks.
type PipelineMetrics struct {
	documentsProcessed metric.Int64Counter
	sectionsIndexed    metric.Int64Counter
	processingErrors   metric.Int64Counter
	embedDuration      metric.Float64Histogram
	searchDuration     metric.Float64Histogram
	searchFallbacks    metric.Int64Counter
}

// InitMetrics builds the meter provider and instrument set.
func InitMetrics(ctx context.Context, cfg Config) (*PipelineMetrics, error) {
	if !cfg.Enabled {
		return &PipelineMetrics{}, nil
	}

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
	)
	meter := meterProvider.Meter("curator")

	m := &PipelineMetrics{}

	m.documentsProcessed, err = meter.Int64Counter(
		"curator_documents_processed_total",
		metric.WithDescription("Raw documents processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create documents counter: %w", err)
	}

	m.sectionsIndexed, err = meter.Int64Counter(
		"curator_sections_indexed_total",
		metric.WithDescription("Document sections embedded and indexed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sections counter: %w", err)
	}

	m.processingErrors, err = meter.Int64Counter(
		"curator_processing_errors_total",
		metric.WithDescription("Document processing failures"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create errors counter: %w", err)
	}

	m.embedDuration, err = meter.Float64Histogram(
		"curator_embedding_duration_seconds",
		metric.WithDescription("Embedding call duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding histogram: %w", err)
	}

	m.searchDuration, err = meter.Float64Histogram(
		"curator_retrieval_duration_seconds",
		metric.WithDescription("Retrieval query duration in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval histogram: %w", err)
	}

	m.searchFallbacks, err = meter.Int64Counter(
		"curator_retrieval_fallbacks_total",
		metric.WithDescription("Retrieval queries that used the widened-threshold fallback"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback counter: %w", err)
	}

	return m, nil
}

// RecordDocumentProcessed records one completed document with its section count.
func (m *PipelineMetrics) RecordDocumentProcessed(ctx context.Context, sections int) {
	if m == nil || m.documentsProcessed == nil {
		return
	}
	m.documentsProcessed.Add(ctx, 1)
	m.sectionsIndexed.Add(ctx, int64(sections))
}

// RecordProcessingError records a failed document.
func (m *PipelineMetrics) RecordProcessingError(ctx context.Context) {
	if m == nil || m.processingErrors == nil {
		return
	}
	m.processingErrors.Add(ctx, 1)
}

// RecordEmbedding records one embedding call.
func (m *PipelineMetrics) RecordEmbedding(ctx context.Context, elapsed time.Duration) {
	if m == nil || m.embedDuration == nil {
		return
	}
	m.embedDuration.Record(ctx, elapsed.Seconds())
}

// RecordSearch records one retrieval query.
func (m *PipelineMetrics) RecordSearch(ctx context.Context, elapsed time.Duration, usedFallback bool) {
	if m == nil || m.searchDuration == nil {
		return
	}
	m.searchDuration.Record(ctx, elapsed.Seconds())
	if usedFallback {
		m.searchFallbacks.Add(ctx, 1)
	}
}
