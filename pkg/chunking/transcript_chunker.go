package chunking

import (
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"

	"github.com/curator-ai/curator/pkg/content"
)

// TranscriptChunker is segment-aware: it accumulates "speaker: text" lines
// from the ordered speaker segments and closes a chunk when the next segment
// would push the buffer past the size limit. A single segment is never split
// across two chunks. Without a structured segment list it falls back to the
// fixed-window splitter.
type TranscriptChunker struct {
	config   Config
	fallback *WindowChunker
}

// NewTranscriptChunker creates a segment-aware transcript chunker.
func NewTranscriptChunker(cfg Config) *TranscriptChunker {
	return &TranscriptChunker{
		config:   cfg,
		fallback: NewWindowChunker(cfg),
	}
}

// Chunk splits a transcript along speaker-segment boundaries.
func (tc *TranscriptChunker) Chunk(text string, meta map[string]any) ([]Chunk, error) {
	segments := decodeSegments(meta)
	if len(segments) == 0 {
		return tc.fallback.Chunk(text, meta)
	}

	var (
		chunks     []Chunk
		buf        strings.Builder
		bufLen     int
		windowFrom int
	)

	flush := func(lastSeg int) {
		cm := map[string]any{
			content.MetaChunkIndex:   len(chunks),
			content.MetaStartSeconds: segments[windowFrom].Start,
			content.MetaEndSeconds:   segments[lastSeg].End,
		}
		passthrough(cm, meta, content.MetaSourceURL, content.MetaTimestamp)

		chunks = append(chunks, Chunk{
			Content:  strings.TrimRight(buf.String(), "\n"),
			Index:    len(chunks),
			Metadata: cm,
		})
		buf.Reset()
		bufLen = 0
	}

	for i, seg := range segments {
		line := seg.Speaker + ": " + seg.Text + "\n"
		lineLen := utf8.RuneCountInString(line)

		if bufLen > 0 && bufLen+lineLen > tc.config.Size {
			flush(i - 1)
			windowFrom = i
		}

		buf.WriteString(line)
		bufLen += lineLen
	}

	if bufLen > 0 {
		flush(len(segments) - 1)
	}

	for i := range chunks {
		chunks[i].Total = len(chunks)
	}

	return chunks, nil
}

// Config returns the chunker configuration.
func (tc *TranscriptChunker) Config() Config {
	return tc.config
}

// decodeSegments pulls the structured speaker segments out of the document
// metadata bag. Ingestion adapters may store them as typed structs or as the
// decoded JSON shape ([]map[string]any); both are accepted.
func decodeSegments(meta map[string]any) []content.TranscriptSegment {
	raw, ok := meta[content.MetaSegments]
	if !ok || raw == nil {
		return nil
	}

	if segs, ok := raw.([]content.TranscriptSegment); ok {
		return nonEmptySegments(segs)
	}

	var segs []content.TranscriptSegment
	if err := mapstructure.Decode(raw, &segs); err != nil {
		return nil
	}
	return nonEmptySegments(segs)
}

func nonEmptySegments(segs []content.TranscriptSegment) []content.TranscriptSegment {
	out := make([]content.TranscriptSegment, 0, len(segs))
	for _, s := range segs {
		if strings.TrimSpace(s.Text) != "" {
			out = append(out, s)
		}
	}
	return out
}
