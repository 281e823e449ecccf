package chunking

import (
	"strings"

	"github.com/curator-ai/curator/pkg/content"
)

// MessageChunker treats chat messages as pre-atomic: the whole message becomes
// exactly one chunk if non-empty after trimming. Conversation identifiers and
// the original timestamp are carried through verbatim.
type MessageChunker struct {
	config Config
}

// NewMessageChunker creates a chunker for pre-atomic chat messages.
func NewMessageChunker(cfg Config) *MessageChunker {
	return &MessageChunker{config: cfg}
}

// Chunk returns the trimmed message as a single chunk, or nothing.
func (mc *MessageChunker) Chunk(text string, meta map[string]any) ([]Chunk, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}

	cm := map[string]any{
		content.MetaChunkIndex: 0,
	}
	passthrough(cm, meta, content.MetaChannelID, content.MetaThreadID, content.MetaTimestamp)

	return []Chunk{{
		Content:  trimmed,
		Index:    0,
		Total:    1,
		Metadata: cm,
	}}, nil
}

// Config returns the chunker configuration.
func (mc *MessageChunker) Config() Config {
	return mc.config
}
