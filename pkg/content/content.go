// Package content defines the domain model shared across the ingestion and
// retrieval pipeline: content sources, raw documents, and embedded sections.
//
// All three entities are scoped by a user identifier. ContentSource carries it
// directly; RawDocument and DocumentSection inherit it transitively through
// their owning source. That scoping is the sole access-control boundary the
// retrieval engine honors.
package content

import (
	"strings"
	"time"
)

// Common metadata keys carried through from ingestion to sections.
const (
	MetaChunkIndex   = "chunk_index"
	MetaSourceURL    = "url"
	MetaFileName     = "file_name"
	MetaChannelID    = "channel_id"
	MetaThreadID     = "thread_id"
	MetaTimestamp    = "timestamp"
	MetaSegments     = "segments"
	MetaStartSeconds = "start_seconds"
	MetaEndSeconds   = "end_seconds"
)

// ContentSource is one named ingest channel owned by a user.
//
// (UserID, Type, Name) is unique: re-ingesting the same named feed updates the
// existing source rather than creating a duplicate.
type ContentSource struct {
	ID     string
	UserID string
	Type   SourceType
	Name   string

	// Config holds provider-specific connection details (connection ids,
	// feed URLs) the core treats as opaque.
	Config map[string]any

	CreatedAt time.Time
}

// RawDocument is one ingested unit of content tied to exactly one source.
//
// Created by an ingestion adapter, mutated once by the processor (the
// processed-at stamp), otherwise immutable.
type RawDocument struct {
	ID       string
	SourceID string
	Title    string
	Content  string

	// Metadata carries provenance: URLs, timestamps, provider fields, and
	// for transcripts the structured speaker segments.
	Metadata map[string]any

	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// Processed reports whether the document has been through the processor.
func (d *RawDocument) Processed() bool {
	return d.ProcessedAt != nil
}

// Empty reports whether the document has no indexable content.
func (d *RawDocument) Empty() bool {
	return strings.TrimSpace(d.Content) == ""
}

// DocumentSection is one embedded, retrievable chunk of a raw document.
//
// Sections are created in bulk by the processor and never updated. Content
// length is bounded by the chunking policy; the embedding dimensionality must
// be constant across the whole corpus.
type DocumentSection struct {
	ID          string
	DocumentID  string
	UserID      string
	SectionType SourceType
	Content     string
	Metadata    map[string]any
	Embedding   []float32
}

// TranscriptSegment is one speaker utterance in a meeting transcript.
type TranscriptSegment struct {
	Speaker string  `json:"speaker" mapstructure:"speaker"`
	Text    string  `json:"text" mapstructure:"text"`
	Start   float64 `json:"start" mapstructure:"start"`
	End     float64 `json:"end" mapstructure:"end"`
}
