package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
logger:
  level: debug
  format: json

embedder:
  type: openai
  model: text-embedding-3-small
  api_key: ${CURATOR_TEST_API_KEY}

vector:
  type: chromem
  persist_path: /tmp/curator-test

store:
  driver: sqlite3
  dsn: "file:test.db?_fk=1"

chunking:
  size: 1500
  overlap: 150

retrieval:
  threshold: 0.65
  limit: 5
  allow_fallback_user: true
  fallback_user_id: shared-corpus

server:
  host: 0.0.0.0
  port: 9000
`

func TestParseFullConfig(t *testing.T) {
	t.Setenv("CURATOR_TEST_API_KEY", "sk-test-123")

	cfg, err := Parse([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "sk-test-123", cfg.Embedder.APIKey)
	assert.Equal(t, "chromem", cfg.Vector.Type)
	assert.Equal(t, "sqlite3", cfg.Store.Driver)
	assert.Equal(t, 1500, cfg.Chunking.Size)
	assert.Equal(t, 150, cfg.Chunking.Overlap)
	assert.InDelta(t, 0.65, cfg.Retrieval.Threshold, 1e-6)
	assert.Equal(t, "shared-corpus", cfg.Retrieval.FallbackUserID)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address())
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
embedder:
  type: ollama
`))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 2000, cfg.Chunking.Size)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.InDelta(t, 0.7, cfg.Retrieval.Threshold, 1e-6)
	assert.Equal(t, 10, cfg.Retrieval.Limit)
	assert.Equal(t, "127.0.0.1:8420", cfg.Server.Address())
	assert.Equal(t, "sqlite3", cfg.Store.Driver)
}

func TestParseEnvDefaultSyntax(t *testing.T) {
	os.Unsetenv("CURATOR_UNSET_HOST")
	cfg, err := Parse([]byte(`
embedder:
  type: ollama
  host: ${CURATOR_UNSET_HOST:-http://localhost:11434}
`))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", cfg.Embedder.Host)
}

func TestParseRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad overlap", "embedder: {type: ollama}\nchunking: {size: 100, overlap: 100}"},
		{"bad embedder type", "embedder: {type: bedrock}"},
		{"missing api key", "embedder: {type: openai}"},
		{"bad threshold", "embedder: {type: ollama}\nretrieval: {threshold: 2.0}"},
		{"fallback without user", "embedder: {type: ollama}\nretrieval: {allow_fallback_user: true}"},
		{"bad store driver", "embedder: {type: ollama}\nstore: {driver: mysql, dsn: x}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Setenv("CURATOR_TEST_API_KEY", "sk-from-file")

	path := filepath.Join(t.TempDir(), "curator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-from-file", cfg.Embedder.APIKey)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsUsable(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "openai", cfg.Embedder.Type)
	assert.Equal(t, "chromem", cfg.Vector.Type)
	assert.NotZero(t, cfg.Server.Port)
}
