package embedders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CohereProvider implements Provider for the Cohere embeddings API.
type CohereProvider struct {
	client    *http.Client
	apiKey    string
	baseURL   string
	model     string
	dimension int
}

type cohereEmbedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model,omitempty"`
	InputType string   `json:"input_type,omitempty"`
}

type cohereEmbedResponse struct {
	ID         string      `json:"id"`
	Embeddings [][]float32 `json:"embeddings"`
}

type cohereErrorResponse struct {
	Message string `json:"message"`
}

// NewCohereProvider creates a Cohere embedding provider.
func NewCohereProvider(cfg Config) (*CohereProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for Cohere embedder")
	}

	model := cfg.Model
	if model == "" {
		model = "embed-english-v3.0"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		switch model {
		case "embed-english-light-v3.0", "embed-multilingual-light-v3.0":
			dimension = 384
		default:
			dimension = 1024
		}
	}

	baseURL := cfg.Host
	if baseURL == "" {
		baseURL = "https://api.cohere.ai/v1"
	}

	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &CohereProvider{
		client:    &http.Client{Timeout: timeout},
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		model:     model,
		dimension: dimension,
	}, nil
}

// Embed returns the embedding vector for text.
func (p *CohereProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody, err := json.Marshal(cohereEmbedRequest{
		Texts:     []string{text},
		Model:     p.model,
		InputType: "search_document",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: "cohere", Operation: "embed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: "cohere", Operation: "embed", Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp cohereErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
			return nil, &ProviderError{
				Provider:   "cohere",
				Operation:  "embed",
				StatusCode: resp.StatusCode,
				Message:    errResp.Message,
			}
		}
		return nil, &ProviderError{
			Provider:   "cohere",
			Operation:  "embed",
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var response cohereEmbedResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &ProviderError{Provider: "cohere", Operation: "embed", Message: "failed to decode response", Err: err}
	}

	if len(response.Embeddings) == 0 || len(response.Embeddings[0]) == 0 {
		return nil, &ProviderError{Provider: "cohere", Operation: "embed", Message: "received empty embedding"}
	}

	return response.Embeddings[0], nil
}

// Dimension returns the vector dimensionality.
func (p *CohereProvider) Dimension() int {
	return p.dimension
}

// ModelName returns the model identifier.
func (p *CohereProvider) ModelName() string {
	return p.model
}

// Close releases resources.
func (p *CohereProvider) Close() error {
	return nil
}
