// Package retrieval answers natural-language queries from indexed sections.
//
// A query is embedded once and searched against the caller's own sections at
// the configured similarity threshold. When nothing clears the threshold the
// search widens to accept any similarity, and when even that finds nothing a
// configured fallback user's sections can be consulted. The fallback is
// double-gated: it runs only when AllowFallbackUser is set and FallbackUserID
// names a different user.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/curator-ai/curator/pkg/embedders"
	"github.com/curator-ai/curator/pkg/observability"
	"github.com/curator-ai/curator/pkg/vector"
)

// DefaultInsufficientContextMessage is returned to callers when no sections
// matched at all.
const DefaultInsufficientContextMessage = "I don't have enough context to answer that yet. Try connecting more content sources."

// ValidationError reports a malformed search request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid search request: %s %s", e.Field, e.Message)
}

// SearchError wraps a failed search.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q failed: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Config tunes the retrieval engine.
type Config struct {
	// Threshold is the minimum similarity for the first search pass.
	// Default: 0.7.
	Threshold float32 `yaml:"threshold,omitempty"`

	// Limit caps returned sections. Default: 10.
	Limit int `yaml:"limit,omitempty"`

	// AllowFallbackUser enables consulting FallbackUserID's sections when
	// the querying user has no matches.
	AllowFallbackUser bool `yaml:"allow_fallback_user,omitempty"`

	// FallbackUserID names the user whose sections back the fallback.
	FallbackUserID string `yaml:"fallback_user_id,omitempty"`

	// InsufficientContextMessage overrides the canned empty-result message.
	InsufficientContextMessage string `yaml:"insufficient_context_message,omitempty"`
}

// SetDefaults applies default values.
func (c *Config) SetDefaults() {
	if c.Threshold == 0 {
		c.Threshold = 0.7
	}
	if c.Limit <= 0 {
		c.Limit = 10
	}
	if c.InsufficientContextMessage == "" {
		c.InsufficientContextMessage = DefaultInsufficientContextMessage
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in [0, 1], got %g", c.Threshold)
	}
	if c.AllowFallbackUser && c.FallbackUserID == "" {
		return fmt.Errorf("allow_fallback_user requires fallback_user_id")
	}
	return nil
}

// SearchResult is a ranked answer set with provenance flags.
type SearchResult struct {
	// Sections are matches ranked by similarity descending.
	Sections []vector.Result

	// Widened is true when the threshold pass matched nothing and the
	// results come from an unthresholded search.
	Widened bool

	// FallbackUser is true when the results come from the configured
	// fallback user's sections rather than the caller's own.
	FallbackUser bool
}

// Empty reports whether nothing matched at all.
func (r *SearchResult) Empty() bool {
	return r == nil || len(r.Sections) == 0
}

// Engine embeds queries and searches the vector index.
type Engine struct {
	index    vector.Index
	embedder embedders.Provider
	cfg      Config
	metrics  *observability.PipelineMetrics
}

// NewEngine creates a retrieval engine over shared index and embedder clients.
func NewEngine(idx vector.Index, emb embedders.Provider, cfg Config, metrics *observability.PipelineMetrics) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retrieval config: %w", err)
	}
	return &Engine{
		index:    idx,
		embedder: emb,
		cfg:      cfg,
		metrics:  metrics,
	}, nil
}

// Search answers query with the user's indexed sections.
//
// An empty result is not an error; callers render InsufficientContext() in
// that case.
func (e *Engine) Search(ctx context.Context, userID, query string) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "must not be empty"}
	}
	if userID == "" {
		return nil, &ValidationError{Field: "user_id", Message: "must not be empty"}
	}

	start := time.Now()

	embedding, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &SearchError{Query: query, Err: err}
	}

	result, err := e.searchUser(ctx, userID, embedding)
	if err != nil {
		return nil, &SearchError{Query: query, Err: err}
	}

	if result.Empty() && e.fallbackApplies(userID) {
		fb, err := e.searchUser(ctx, e.cfg.FallbackUserID, embedding)
		if err != nil {
			return nil, &SearchError{Query: query, Err: err}
		}
		if !fb.Empty() {
			fb.FallbackUser = true
			slog.Debug("Query answered from fallback user",
				"user", userID,
				"fallback_user", e.cfg.FallbackUserID,
				"sections", len(fb.Sections))
			result = fb
		}
	}

	e.metrics.RecordSearch(ctx, time.Since(start), result.Widened || result.FallbackUser)
	return result, nil
}

// searchUser runs the thresholded pass and, when it matches nothing, the
// widened pass for one user.
func (e *Engine) searchUser(ctx context.Context, userID string, embedding []float32) (*SearchResult, error) {
	sections, err := e.index.Search(ctx, vector.Query{
		Vector:    embedding,
		UserID:    userID,
		Threshold: e.cfg.Threshold,
		Limit:     e.cfg.Limit,
	})
	if err != nil {
		return nil, err
	}
	if len(sections) > 0 {
		return &SearchResult{Sections: sections}, nil
	}

	sections, err = e.index.Search(ctx, vector.Query{
		Vector: embedding,
		UserID: userID,
		Limit:  e.cfg.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &SearchResult{Sections: sections, Widened: len(sections) > 0}, nil
}

func (e *Engine) fallbackApplies(userID string) bool {
	return e.cfg.AllowFallbackUser &&
		e.cfg.FallbackUserID != "" &&
		e.cfg.FallbackUserID != userID
}

// InsufficientContext is the message rendered when a search matches nothing.
func (e *Engine) InsufficientContext() string {
	return e.cfg.InsufficientContextMessage
}
