package content

import "fmt"

// SourceType identifies the kind of channel a document was ingested from.
//
// The chunking policy and section-type tag are both derived from it, so the
// set is closed: adding a new ingest channel means adding a constant here and
// handling it in the chunker dispatch.
type SourceType string

const (
	// SourceNotes is free-form user notes (the default channel).
	SourceNotes SourceType = "generic-notes"

	// SourceChatMessages is short, pre-atomic chat messages (Slack etc.).
	SourceChatMessages SourceType = "chat-messages"

	// SourceBlogFeed is long-form posts pulled from a feed (Substack, RSS).
	SourceBlogFeed SourceType = "blog-feed"

	// SourceFiles is uploaded files of arbitrary text content.
	SourceFiles SourceType = "generic-files"

	// SourceWorkspaceDocs is pages exported from a workspace tool (Notion).
	SourceWorkspaceDocs SourceType = "workspace-docs"

	// SourceManualFeed is content pasted or submitted by hand.
	SourceManualFeed SourceType = "manual-feed"

	// SourceMeetingTranscript is speaker-segmented meeting transcripts.
	SourceMeetingTranscript SourceType = "meeting-transcript"

	// SourceWebSearch is snapshots of web search results.
	SourceWebSearch SourceType = "web-search-snapshot"
)

// AllSourceTypes lists every valid source type.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceNotes,
		SourceChatMessages,
		SourceBlogFeed,
		SourceFiles,
		SourceWorkspaceDocs,
		SourceManualFeed,
		SourceMeetingTranscript,
		SourceWebSearch,
	}
}

// ParseSourceType converts a string tag into a SourceType.
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(s)
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

// Validate checks that the source type is one of the closed set.
func (st SourceType) Validate() error {
	switch st {
	case SourceNotes, SourceChatMessages, SourceBlogFeed, SourceFiles,
		SourceWorkspaceDocs, SourceManualFeed, SourceMeetingTranscript, SourceWebSearch:
		return nil
	default:
		return fmt.Errorf("invalid source type: %q", string(st))
	}
}

func (st SourceType) String() string {
	return string(st)
}
