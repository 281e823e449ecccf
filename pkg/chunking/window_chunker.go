package chunking

import (
	"strings"

	"github.com/curator-ai/curator/pkg/content"
)

// WindowChunker splits trimmed text into fixed-size character windows.
//
// Each window after the first starts Overlap characters before the previous
// window's end, so context at a hard boundary appears in both neighbors.
// The window always advances because overlap < size is enforced by Config.
type WindowChunker struct {
	config Config
}

// NewWindowChunker creates a fixed-window chunker.
func NewWindowChunker(cfg Config) *WindowChunker {
	return &WindowChunker{config: cfg}
}

// Chunk splits content into overlapping windows.
func (wc *WindowChunker) Chunk(text string, meta map[string]any) ([]Chunk, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	// Windows are measured in characters, not bytes, so multibyte content
	// is never split mid-rune.
	runes := []rune(trimmed)
	size := wc.config.Size
	overlap := wc.config.Overlap

	var chunks []Chunk
	start := 0
	for {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		cm := map[string]any{
			content.MetaChunkIndex: len(chunks),
		}
		passthrough(cm, meta, content.MetaSourceURL, content.MetaFileName, content.MetaTimestamp)

		chunks = append(chunks, Chunk{
			Content:  string(runes[start:end]),
			Index:    len(chunks),
			Metadata: cm,
		})

		if end >= len(runes) {
			break
		}
		start = end - overlap
	}

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}

	return chunks, nil
}

// Config returns the chunker configuration.
func (wc *WindowChunker) Config() Config {
	return wc.config
}
