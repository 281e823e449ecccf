package embedders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIProvider_Embed(t *testing.T) {
	var gotAuth string
	var gotReq openAIEmbedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}, "index": 0},
			},
			"model": "text-embedding-3-small",
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "sk-test", Host: server.URL})
	require.NoError(t, err)

	vec, err := p.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, []string{"hello"}, gotReq.Input)
	assert.Equal(t, "text-embedding-3-small", gotReq.Model)
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited", "type": "requests", "code": "rate_limit_exceeded"},
		})
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "sk-test", Host: server.URL})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "hello")
	require.Error(t, err)

	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
	assert.True(t, provErr.Temporary())
}

func TestOpenAIProvider_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "sk-test", Host: server.URL})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "hello")
	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.False(t, provErr.Temporary())
}

func TestOpenAIProvider_DimensionDefaults(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"", 1536},
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
	}

	for _, tt := range tests {
		p, err := NewOpenAIProvider(Config{APIKey: "sk-test", Model: tt.model})
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.Dimension(), "model %q", tt.model)
	}
}

func TestProviderError_Temporary(t *testing.T) {
	assert.True(t, (&ProviderError{StatusCode: 500}).Temporary())
	assert.True(t, (&ProviderError{StatusCode: 503}).Temporary())
	assert.True(t, (&ProviderError{StatusCode: 429}).Temporary())
	assert.True(t, (&ProviderError{Err: errors.New("connection refused")}).Temporary())
	assert.False(t, (&ProviderError{StatusCode: 400}).Temporary())
	assert.False(t, (&ProviderError{StatusCode: 401}).Temporary())
	assert.False(t, (&ProviderError{Message: "empty embedding"}).Temporary())
}

func TestNew_TypeDispatch(t *testing.T) {
	p, err := New(Config{Type: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", p.ModelName())

	p, err = New(Config{Type: "ollama"})
	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", p.ModelName())

	p, err = New(Config{Type: "cohere", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "embed-english-v3.0", p.ModelName())

	_, err = New(Config{Type: "bogus"})
	assert.Error(t, err)
}
