// Package chunking splits raw ingested text into bounded segments ready for
// embedding. The strategy is selected by content source type: chat messages
// are pre-atomic, meeting transcripts are split on speaker-segment boundaries,
// and everything else goes through a fixed-window splitter with overlap.
package chunking

import (
	"fmt"

	"github.com/curator-ai/curator/pkg/content"
)

// Chunker splits document content into ordered chunks.
//
// Empty or whitespace-only content yields an empty slice, never an error.
type Chunker interface {
	// Chunk splits content into pieces. The metadata bag is the raw
	// document's metadata; selected provenance fields are carried through
	// onto each chunk.
	Chunk(text string, meta map[string]any) ([]Chunk, error)

	// Config returns the chunker configuration.
	Config() Config
}

// Chunk is one bounded piece of content with its carried-through metadata.
type Chunk struct {
	Content  string         `json:"content"`
	Index    int            `json:"index"`
	Total    int            `json:"total"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Config bounds chunk sizes.
type Config struct {
	// Size is the maximum chunk size in characters.
	// Default: 2000
	Size int `yaml:"size,omitempty"`

	// Overlap is how many characters consecutive window chunks share.
	// Default: 200
	Overlap int `yaml:"overlap,omitempty"`
}

// DefaultConfig returns the production chunking bounds.
func DefaultConfig() Config {
	return Config{
		Size:    2000,
		Overlap: 200,
	}
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Size <= 0 {
		c.Size = 2000
	}
	if c.Overlap < 0 {
		c.Overlap = 0
	}
}

// Validate checks the configuration for errors.
//
// Overlap must be strictly less than size or the window would never advance.
func (c *Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.Size)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("overlap must be non-negative, got %d", c.Overlap)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("overlap (%d) must be less than size (%d)", c.Overlap, c.Size)
	}
	return nil
}

// ForSourceType returns the chunker for a content source type.
//
// The switch is exhaustive over content.SourceType; an unknown tag is a
// validation error, not a silent fallback.
func ForSourceType(st content.SourceType, cfg Config) (Chunker, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	switch st {
	case content.SourceChatMessages:
		return NewMessageChunker(cfg), nil

	case content.SourceMeetingTranscript:
		return NewTranscriptChunker(cfg), nil

	case content.SourceNotes, content.SourceBlogFeed, content.SourceFiles,
		content.SourceWorkspaceDocs, content.SourceManualFeed, content.SourceWebSearch:
		return NewWindowChunker(cfg), nil

	default:
		return nil, fmt.Errorf("no chunker for source type %q", st)
	}
}

// passthrough copies selected provenance keys from the document metadata bag
// onto a chunk metadata map.
func passthrough(dst, src map[string]any, keys ...string) {
	for _, k := range keys {
		if v, ok := src[k]; ok {
			dst[k] = v
		}
	}
}
