package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curator-ai/curator/pkg/content"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", DefaultConfig(), false},
		{"zero size", Config{Size: 0, Overlap: 0}, true},
		{"negative overlap", Config{Size: 100, Overlap: -1}, true},
		{"overlap equals size", Config{Size: 100, Overlap: 100}, true},
		{"overlap exceeds size", Config{Size: 100, Overlap: 150}, true},
		{"valid", Config{Size: 100, Overlap: 20}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestForSourceType_Dispatch(t *testing.T) {
	cfg := DefaultConfig()

	chat, err := ForSourceType(content.SourceChatMessages, cfg)
	require.NoError(t, err)
	assert.IsType(t, &MessageChunker{}, chat)

	transcript, err := ForSourceType(content.SourceMeetingTranscript, cfg)
	require.NoError(t, err)
	assert.IsType(t, &TranscriptChunker{}, transcript)

	for _, st := range []content.SourceType{
		content.SourceNotes, content.SourceBlogFeed, content.SourceFiles,
		content.SourceWorkspaceDocs, content.SourceManualFeed, content.SourceWebSearch,
	} {
		c, err := ForSourceType(st, cfg)
		require.NoError(t, err)
		assert.IsType(t, &WindowChunker{}, c, "source type %s", st)
	}

	_, err = ForSourceType(content.SourceType("bogus"), cfg)
	assert.Error(t, err)
}

func TestWindowChunker_EmptyAndWhitespace(t *testing.T) {
	wc := NewWindowChunker(DefaultConfig())

	for _, text := range []string{"", "   ", "\n\t  \n"} {
		chunks, err := wc.Chunk(text, nil)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestWindowChunker_ShortText(t *testing.T) {
	wc := NewWindowChunker(DefaultConfig())

	chunks, err := wc.Chunk("  hello world  ", nil)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[0].Total)
	assert.Equal(t, 0, chunks[0].Metadata[content.MetaChunkIndex])
}

func TestWindowChunker_OverlapAndReconstruction(t *testing.T) {
	wc := NewWindowChunker(Config{Size: 100, Overlap: 10})
	text := strings.Repeat("abcdefghij", 35) // 350 chars

	chunks, err := wc.Chunk(text, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks share exactly the configured overlap.
	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i].Content[len(chunks[i].Content)-10:]
		assert.True(t, strings.HasPrefix(chunks[i+1].Content, tail),
			"chunk %d does not start with chunk %d's overlap tail", i+1, i)
	}

	// Concatenating chunks with overlaps removed reconstructs the text.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Content)
	for _, c := range chunks[1:] {
		rebuilt.WriteString(c.Content[10:])
	}
	assert.Equal(t, text, rebuilt.String())
}

func TestWindowChunker_BlogPostScenario(t *testing.T) {
	// 4500-char post with size 2000 / overlap 200: windows are
	// [0,2000), [1800,3800), [3600,4500) -> 3 chunks, indices 0..2.
	wc := NewWindowChunker(DefaultConfig())
	text := strings.Repeat("x", 4500)

	chunks, err := wc.Chunk(text, map[string]any{content.MetaSourceURL: "https://example.com/post"})
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Len(t, chunks[0].Content, 2000)
	assert.Len(t, chunks[1].Content, 2000)
	assert.Len(t, chunks[2].Content, 900)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, i, c.Metadata[content.MetaChunkIndex])
		assert.Equal(t, 3, c.Total)
		assert.Equal(t, "https://example.com/post", c.Metadata[content.MetaSourceURL])
	}
}

func TestWindowChunker_MultibyteBoundaries(t *testing.T) {
	wc := NewWindowChunker(Config{Size: 10, Overlap: 2})
	text := strings.Repeat("héllo wörl", 4) // 40 runes, 48 bytes

	chunks, err := wc.Chunk(text, nil)
	require.NoError(t, err)

	for i, c := range chunks {
		assert.True(t, strings.ToValidUTF8(c.Content, "?") == c.Content,
			"chunk %d split mid-rune", i)
	}
}

func TestMessageChunker_SingleChunk(t *testing.T) {
	mc := NewMessageChunker(DefaultConfig())

	meta := map[string]any{
		content.MetaChannelID: "C042",
		content.MetaThreadID:  "T777",
		content.MetaTimestamp: "1724831000.12",
	}

	chunks, err := mc.Chunk("  quick standup note  ", meta)
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "quick standup note", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].Total)
	assert.Equal(t, "C042", chunks[0].Metadata[content.MetaChannelID])
	assert.Equal(t, "T777", chunks[0].Metadata[content.MetaThreadID])
	assert.Equal(t, "1724831000.12", chunks[0].Metadata[content.MetaTimestamp])
}

func TestMessageChunker_Whitespace(t *testing.T) {
	mc := NewMessageChunker(DefaultConfig())

	chunks, err := mc.Chunk("   \n ", map[string]any{content.MetaChannelID: "C1"})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestTranscriptChunker_SegmentBoundaries(t *testing.T) {
	tc := NewTranscriptChunker(Config{Size: 60, Overlap: 10})

	segments := []content.TranscriptSegment{
		{Speaker: "alice", Text: "welcome everyone to the call", Start: 0, End: 4},
		{Speaker: "bob", Text: "thanks, happy to be here today", Start: 4, End: 9},
		{Speaker: "alice", Text: "first item is the launch plan", Start: 9, End: 15},
		{Speaker: "bob", Text: "the draft went out on monday", Start: 15, End: 21},
	}
	meta := map[string]any{content.MetaSegments: segments}

	chunks, err := tc.Chunk("", meta)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// No speaker segment is ever split across two chunks.
	for _, seg := range segments {
		line := seg.Speaker + ": " + seg.Text
		found := 0
		for _, c := range chunks {
			if strings.Contains(c.Content, line) {
				found++
			}
		}
		assert.Equal(t, 1, found, "segment %q should appear in exactly one chunk", line)
	}

	// Time windows come from the covered segments and are contiguous.
	assert.Equal(t, 0.0, chunks[0].Metadata[content.MetaStartSeconds])
	last := chunks[len(chunks)-1]
	assert.Equal(t, 21.0, last.Metadata[content.MetaEndSeconds])
}

func TestTranscriptChunker_SegmentsFromDecodedJSON(t *testing.T) {
	tc := NewTranscriptChunker(DefaultConfig())

	meta := map[string]any{
		content.MetaSegments: []map[string]any{
			{"speaker": "carol", "text": "short sync", "start": 1.5, "end": 3.0},
		},
	}

	chunks, err := tc.Chunk("", meta)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "carol: short sync", chunks[0].Content)
	assert.Equal(t, 1.5, chunks[0].Metadata[content.MetaStartSeconds])
	assert.Equal(t, 3.0, chunks[0].Metadata[content.MetaEndSeconds])
}

func TestTranscriptChunker_FallbackWithoutSegments(t *testing.T) {
	tc := NewTranscriptChunker(Config{Size: 50, Overlap: 5})
	text := strings.Repeat("raw transcript text without structure ", 5)

	chunks, err := tc.Chunk(text, map[string]any{})
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1, "should fall back to window splitting")
}

func TestTranscriptChunker_EmptyInput(t *testing.T) {
	tc := NewTranscriptChunker(DefaultConfig())

	chunks, err := tc.Chunk("", map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
