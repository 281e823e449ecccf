package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curator-ai/curator/pkg/content"
)

func testIndex(t *testing.T) *ChromemIndex {
	t.Helper()
	idx, err := NewChromemIndex(Config{Type: "chromem", Collection: DefaultCollection})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func seedSection(t *testing.T, idx *ChromemIndex, id, userID string, embedding []float32) {
	t.Helper()
	err := idx.UpsertSection(context.Background(), &content.DocumentSection{
		ID:          id,
		DocumentID:  "doc-" + id,
		UserID:      userID,
		SectionType: content.SourceNotes,
		Content:     "section " + id,
		Metadata:    map[string]any{content.MetaChunkIndex: 0},
		Embedding:   embedding,
	})
	require.NoError(t, err)
}

func TestChromemIndex_SearchRankedAndThresholded(t *testing.T) {
	idx := testIndex(t)

	// Unit vectors with known cosine similarity against the query [1,0,0].
	seedSection(t, idx, "exact", "user-a", []float32{1, 0, 0})
	seedSection(t, idx, "close", "user-a", []float32{0.6, 0.8, 0})
	seedSection(t, idx, "orthogonal", "user-a", []float32{0, 1, 0})

	results, err := idx.Search(context.Background(), Query{
		Vector:    []float32{1, 0, 0},
		UserID:    "user-a",
		Threshold: 0.5,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "exact", results[0].SectionID)
	assert.Equal(t, "close", results[1].SectionID)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	for _, r := range results {
		assert.GreaterOrEqual(t, r.Score, float32(0.5))
	}
}

func TestChromemIndex_DisabledThresholdReturnsEverything(t *testing.T) {
	idx := testIndex(t)

	seedSection(t, idx, "exact", "user-a", []float32{1, 0, 0})
	seedSection(t, idx, "orthogonal", "user-a", []float32{0, 1, 0})

	results, err := idx.Search(context.Background(), Query{
		Vector: []float32{1, 0, 0},
		UserID: "user-a",
		Limit:  10,
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestChromemIndex_UserScoping(t *testing.T) {
	idx := testIndex(t)

	seedSection(t, idx, "mine", "user-a", []float32{1, 0, 0})
	seedSection(t, idx, "theirs", "user-b", []float32{1, 0, 0})

	results, err := idx.Search(context.Background(), Query{
		Vector: []float32{1, 0, 0},
		UserID: "user-a",
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "mine", results[0].SectionID)
}

func TestChromemIndex_EmptyCollection(t *testing.T) {
	idx := testIndex(t)

	results, err := idx.Search(context.Background(), Query{
		Vector: []float32{1, 0, 0},
		UserID: "user-a",
		Limit:  5,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemIndex_PayloadRoundTrip(t *testing.T) {
	idx := testIndex(t)

	err := idx.UpsertSection(context.Background(), &content.DocumentSection{
		ID:          "s1",
		DocumentID:  "d1",
		UserID:      "user-a",
		SectionType: content.SourceMeetingTranscript,
		Content:     "alice: hello",
		Metadata: map[string]any{
			content.MetaChunkIndex:   0,
			content.MetaStartSeconds: 1.5,
		},
		Embedding: []float32{0, 0, 1},
	})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), Query{
		Vector: []float32{0, 0, 1},
		UserID: "user-a",
		Limit:  1,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "d1", r.DocumentID)
	assert.Equal(t, content.SourceMeetingTranscript, r.SectionType)
	assert.Equal(t, "alice: hello", r.Content)
	assert.Equal(t, 1.5, r.Metadata[content.MetaStartSeconds])
	assert.Equal(t, float64(0), r.Metadata[content.MetaChunkIndex])
}

func TestChromemIndex_DeleteDocument(t *testing.T) {
	idx := testIndex(t)

	seedSection(t, idx, "keep", "user-a", []float32{1, 0, 0})
	seedSection(t, idx, "drop", "user-a", []float32{0.9, 0.1, 0})

	require.NoError(t, idx.DeleteDocument(context.Background(), "doc-drop"))

	results, err := idx.Search(context.Background(), Query{
		Vector: []float32{1, 0, 0},
		UserID: "user-a",
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "keep", results[0].SectionID)
}
