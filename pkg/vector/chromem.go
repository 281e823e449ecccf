package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/curator-ai/curator/pkg/content"
)

// ChromemIndex implements Index using chromem-go for embedded storage.
//
// Vectors live in memory with optional gzip-compressed file persistence.
// Suitable for single-process deployments and tests; use qdrant at scale.
type ChromemIndex struct {
	db          *chromem.DB
	collection  string
	persistPath string
	compress    bool
	mu          sync.Mutex
}

// NewChromemIndex creates an embedded vector index.
func NewChromemIndex(cfg Config) (*ChromemIndex, error) {
	var db *chromem.DB

	if cfg.PersistPath != "" {
		if err := os.MkdirAll(cfg.PersistPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create persist directory: %w", err)
		}

		dbPath := cfg.PersistPath + "/sections.gob"
		if cfg.Compress {
			dbPath += ".gz"
		}

		if _, err := os.Stat(dbPath); err == nil {
			loaded, err := chromem.NewPersistentDB(dbPath, cfg.Compress)
			if err != nil {
				slog.Warn("Failed to load existing section index, creating new",
					"path", dbPath,
					"error", err)
				db = chromem.NewDB()
			} else {
				db = loaded
				slog.Info("Loaded section index from file", "path", dbPath)
			}
		} else {
			db = chromem.NewDB()
		}
	} else {
		db = chromem.NewDB()
		slog.Debug("Created in-memory section index (no persistence)")
	}

	return &ChromemIndex{
		db:          db,
		collection:  cfg.Collection,
		persistPath: cfg.PersistPath,
		compress:    cfg.Compress,
	}, nil
}

// getCollection resolves the section collection, creating it on first use.
// The embedding function is never invoked: vectors are always pre-computed
// by the embedding provider.
func (x *ChromemIndex) getCollection() (*chromem.Collection, error) {
	noEmbed := func(ctx context.Context, text string) ([]float32, error) {
		return nil, fmt.Errorf("vectors must be pre-computed")
	}
	col, err := x.db.GetOrCreateCollection(x.collection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection %q: %w", x.collection, err)
	}
	return col, nil
}

// UpsertSection writes one section document with its embedding.
func (x *ChromemIndex) UpsertSection(ctx context.Context, sec *content.DocumentSection) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	col, err := x.getCollection()
	if err != nil {
		return err
	}

	metaJSON, err := json.Marshal(sec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode section metadata: %w", err)
	}

	doc := chromem.Document{
		ID:      sec.ID,
		Content: sec.Content,
		Metadata: map[string]string{
			fieldUserID:      sec.UserID,
			fieldDocumentID:  sec.DocumentID,
			fieldSectionType: string(sec.SectionType),
			fieldMetadata:    string(metaJSON),
		},
		Embedding: sec.Embedding,
	}

	if err := col.AddDocuments(ctx, []chromem.Document{doc}, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to upsert section %s: %w", sec.ID, err)
	}
	return nil
}

// DeleteDocument removes every section of one document.
func (x *ChromemIndex) DeleteDocument(ctx context.Context, documentID string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	col, err := x.getCollection()
	if err != nil {
		return err
	}

	where := map[string]string{fieldDocumentID: documentID}
	if err := col.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("failed to delete sections for document %s: %w", documentID, err)
	}
	return nil
}

// Search returns the user's sections ranked by cosine similarity.
func (x *ChromemIndex) Search(ctx context.Context, q Query) ([]Result, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	col, err := x.getCollection()
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults above the collection size.
	limit := q.Limit
	if count := col.Count(); count < limit {
		limit = count
	}
	if limit == 0 {
		return nil, nil
	}

	where := map[string]string{fieldUserID: q.UserID}
	matches, err := col.QueryEmbedding(ctx, q.Vector, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem search failed: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		if q.Threshold > 0 && m.Similarity < q.Threshold {
			continue
		}

		r := Result{
			SectionID:   m.ID,
			DocumentID:  m.Metadata[fieldDocumentID],
			SectionType: content.SourceType(m.Metadata[fieldSectionType]),
			Content:     m.Content,
			Score:       m.Similarity,
		}
		if raw := m.Metadata[fieldMetadata]; raw != "" {
			var meta map[string]any
			if err := json.Unmarshal([]byte(raw), &meta); err == nil {
				r.Metadata = meta
			}
		}
		results = append(results, r)
	}
	return results, nil
}

// Close persists the index if a path is configured.
func (x *ChromemIndex) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.persistPath == "" {
		return nil
	}

	dbPath := x.persistPath + "/sections.gob"
	if x.compress {
		dbPath += ".gz"
	}
	if err := x.db.ExportToFile(dbPath, x.compress, ""); err != nil {
		return fmt.Errorf("failed to persist section index: %w", err)
	}
	return nil
}
