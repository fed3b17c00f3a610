package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/qfs-io/qfs/internal/diag"
	"github.com/qfs-io/qfs/internal/qerr"
)

// HTTPEmbedder calls an Ollama-style /api/embeddings endpoint, one
// request per text since the common local-serving APIs do not batch.
type HTTPEmbedder struct {
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
}

// NewHTTPEmbedder returns an HTTPEmbedder. dimensions is the
// Matryoshka-truncated target length; 0 means use the model's native
// output length untruncated.
func NewHTTPEmbedder(baseURL, model string, dimensions int) *HTTPEmbedder {
	return &HTTPEmbedder{
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: 300 * time.Second},
	}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed requests one vector per text in order; a query flag is not part
// of the batch contract, so every text is embedded as a document — query
// embedding distinctions are the caller's responsibility via EmbedQuery.
func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.embedOne(ctx, text, "search_document: ")
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedQuery embeds a single search query, applying the query-side
// prefix convention used by nomic/gemma-style embedding models.
func (e *HTTPEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.embedOne(ctx, text, "search_query: ")
}

func (e *HTTPEmbedder) embedOne(ctx context.Context, text, prefix string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: prefix + text})
	if err != nil {
		return nil, qerr.Serialization_("marshal embed request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, qerr.EmbeddingError_("build embed request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, qerr.EmbeddingError_("embed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, qerr.EmbeddingError_(fmt.Sprintf("embed API returned status %s", resp.Status), nil)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, qerr.Serialization_("decode embed response", err)
	}

	vec := result.Embedding
	if e.dimensions > 0 && len(vec) > e.dimensions {
		diag.Debug("truncating embedding from %d to %d dims", len(vec), e.dimensions)
		vec = vec[:e.dimensions]
		Normalize(vec)
	}
	return vec, nil
}

func (e *HTTPEmbedder) Dimensions() int { return e.dimensions }
func (e *HTTPEmbedder) ModelName() string { return e.model }
func (e *HTTPEmbedder) Close() error       { return nil }
