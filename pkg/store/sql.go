package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/curator-ai/curator/pkg/content"
)

const schema = `
CREATE TABLE IF NOT EXISTS content_sources (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	source_type TEXT NOT NULL,
	name        TEXT NOT NULL,
	config      TEXT NOT NULL DEFAULT '{}',
	created_at  TIMESTAMP NOT NULL,
	UNIQUE (user_id, source_type, name)
);

CREATE TABLE IF NOT EXISTS raw_documents (
	id           TEXT PRIMARY KEY,
	source_id    TEXT NOT NULL REFERENCES content_sources(id),
	title        TEXT,
	content      TEXT NOT NULL,
	metadata     TEXT NOT NULL DEFAULT '{}',
	content_hash TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL,
	processed_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_raw_documents_source_hash
	ON raw_documents (source_id, content_hash, created_at);
`

// SQLStore implements Store over database/sql.
//
// Postgres is the production driver; sqlite3 serves embedded and test
// deployments. Queries are written with ? placeholders and rebound for
// postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and bootstraps the schema.
func Open(cfg Config) (*SQLStore, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	s := &SQLStore{db: db, driver: cfg.Driver}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLStore wraps an existing connection pool without schema bootstrap.
func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &StoreError{Operation: "ensure_schema", Message: "failed to apply schema", Err: err}
		}
	}
	return nil
}

// rebind converts ? placeholders to $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UpsertSource creates or updates a source keyed by (user, type, name).
func (s *SQLStore) UpsertSource(ctx context.Context, src *content.ContentSource) (*content.ContentSource, error) {
	if err := src.Type.Validate(); err != nil {
		return nil, err
	}

	cfgJSON, err := json.Marshal(orEmpty(src.Config))
	if err != nil {
		return nil, &StoreError{Operation: "upsert_source", Message: "failed to encode config", Err: err}
	}

	id := src.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := src.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO content_sources (id, user_id, source_type, name, config, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, source_type, name)
		DO UPDATE SET config = excluded.config`),
		id, src.UserID, string(src.Type), src.Name, string(cfgJSON), createdAt)
	if err != nil {
		return nil, &StoreError{Operation: "upsert_source", Message: "insert failed", Err: err}
	}

	// The conflict path keeps the original row id, so read it back.
	return s.getSourceByKey(ctx, src.UserID, src.Type, src.Name)
}

func (s *SQLStore) getSourceByKey(ctx context.Context, userID string, st content.SourceType, name string) (*content.ContentSource, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, user_id, source_type, name, config, created_at
		FROM content_sources
		WHERE user_id = ? AND source_type = ? AND name = ?`),
		userID, string(st), name)
	return scanSource(row)
}

// GetSource returns a source by id.
func (s *SQLStore) GetSource(ctx context.Context, id string) (*content.ContentSource, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, user_id, source_type, name, config, created_at
		FROM content_sources
		WHERE id = ?`), id)
	return scanSource(row)
}

func scanSource(row *sql.Row) (*content.ContentSource, error) {
	var (
		src     content.ContentSource
		stype   string
		cfgJSON string
	)
	err := row.Scan(&src.ID, &src.UserID, &stype, &src.Name, &cfgJSON, &src.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSourceNotFound
	}
	if err != nil {
		return nil, &StoreError{Operation: "get_source", Message: "scan failed", Err: err}
	}

	src.Type = content.SourceType(stype)
	if err := json.Unmarshal([]byte(cfgJSON), &src.Config); err != nil {
		return nil, &StoreError{Operation: "get_source", Message: "failed to decode config", Err: err}
	}
	return &src, nil
}

// InsertDocument persists a new raw document with its content hash.
func (s *SQLStore) InsertDocument(ctx context.Context, doc *content.RawDocument) (*content.RawDocument, error) {
	metaJSON, err := json.Marshal(orEmpty(doc.Metadata))
	if err != nil {
		return nil, &StoreError{Operation: "insert_document", Message: "failed to encode metadata", Err: err}
	}

	out := *doc
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO raw_documents (id, source_id, title, content, metadata, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		out.ID, out.SourceID, out.Title, out.Content, string(metaJSON),
		ContentHash(out.Content), out.CreatedAt)
	if err != nil {
		return nil, &StoreError{Operation: "insert_document", Message: "insert failed", Err: err}
	}
	return &out, nil
}

// GetDocument returns a document by id.
func (s *SQLStore) GetDocument(ctx context.Context, id string) (*content.RawDocument, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT id, source_id, title, content, metadata, created_at, processed_at
		FROM raw_documents
		WHERE id = ?`), id)

	var (
		doc         content.RawDocument
		title       sql.NullString
		metaJSON    string
		processedAt sql.NullTime
	)
	err := row.Scan(&doc.ID, &doc.SourceID, &title, &doc.Content, &metaJSON, &doc.CreatedAt, &processedAt)
	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, &StoreError{Operation: "get_document", Message: "scan failed", Err: err}
	}

	doc.Title = title.String
	if err := json.Unmarshal([]byte(metaJSON), &doc.Metadata); err != nil {
		return nil, &StoreError{Operation: "get_document", Message: "failed to decode metadata", Err: err}
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	return &doc, nil
}

// MarkProcessed conditionally stamps a document as processed.
func (s *SQLStore) MarkProcessed(ctx context.Context, documentID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE raw_documents
		SET processed_at = ?
		WHERE id = ? AND processed_at IS NULL`),
		at.UTC(), documentID)
	if err != nil {
		return &StoreError{Operation: "mark_processed", Message: "update failed", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &StoreError{Operation: "mark_processed", Message: "rows affected unavailable", Err: err}
	}
	if affected > 0 {
		return nil
	}

	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return err
	}
	return ErrAlreadyProcessed
}

// HasRecentDocument reports whether the source already ingested identical
// content after the given time.
func (s *SQLStore) HasRecentDocument(ctx context.Context, sourceID, contentHash string, since time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT COUNT(1)
		FROM raw_documents
		WHERE source_id = ? AND content_hash = ? AND created_at > ?`),
		sourceID, contentHash, since.UTC()).Scan(&count)
	if err != nil {
		return false, &StoreError{Operation: "has_recent_document", Message: "query failed", Err: err}
	}
	return count > 0, nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// ContentHash returns the hex SHA-256 of document content, the identity used
// for duplicate detection.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
