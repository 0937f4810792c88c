package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"smallchain/internal/domain"
)

var errNoEmbedding = errors.New("no embedding returned")

// Client is an OpenAI-compatible embeddings client implementing the Embedder interface.
// It performs exactly one request per call; retry policy belongs to the caller.
type Client struct {
	endpoint  string
	apiKey    string
	azure     bool
	model     string
	client    *http.Client
	mu        sync.Mutex
	dimension int
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
	// APIVersion switches the client to Azure mode: the key goes into the
	// api-key header and api-version is appended to the query.
	APIVersion string
	// HTTPClient overrides the default client built from Timeout.
	HTTPClient *http.Client
}

// NewClient creates a new embeddings client using the provided configuration.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	endpoint, err := url.JoinPath(cfg.BaseURL, "embeddings")
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	if cfg.APIVersion != "" {
		endpoint += "?" + url.Values{"api-version": {cfg.APIVersion}}.Encode()
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   key,
		azure:    cfg.APIVersion != "",
		model:    cfg.Model,
		client:   hc,
	}, nil
}

// Name returns the identifier of this embedder implementation.
func (c *Client) Name() string { return "openai" }

// Prepare is not required for remote embedding. Dimension is learned from the first response.
func (c *Client) Prepare(corpus []string) error { return nil }

// Dimension returns the dimensionality of the produced embedding vectors,
// or 0 before the first successful call.
func (c *Client) Dimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dimension
}

// Embed returns an embedding vector for the given text.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts with a single request. Vectors are returned in
// input order.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	type reqBody struct {
		Input  []string `json:"input"`
		Prompt string   `json:"prompt,omitempty"`
		Model  string   `json:"model"`
	}
	body := reqBody{Input: texts, Model: c.model}
	if len(texts) == 1 {
		// Ollama's native endpoint reads "prompt".
		body.Prompt = texts[0]
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, c.fail(0, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, c.fail(0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.azure {
		req.Header.Set("api-key", c.apiKey)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, c.fail(0, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fail(resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.fail(resp.StatusCode, fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(payload)))
	}

	vecs, err := decode(payload, len(texts))
	if err != nil {
		return nil, c.fail(resp.StatusCode, err)
	}
	c.mu.Lock()
	if c.dimension == 0 {
		c.dimension = len(vecs[0])
	}
	c.mu.Unlock()
	return vecs, nil
}

func (c *Client) fail(status int, err error) error {
	return &domain.EmbeddingError{Provider: c.Name(), Status: status, Err: err}
}

// decode accepts the OpenAI shape {"data":[{"index":i,"embedding":[...]}]}
// and falls back to Ollama's {"embedding":[...]} for single inputs.
func decode(payload []byte, want int) ([][]float64, error) {
	var openaiOut struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &openaiOut); err == nil && len(openaiOut.Data) > 0 {
		if len(openaiOut.Data) != want {
			return nil, fmt.Errorf("got %d embeddings for %d inputs", len(openaiOut.Data), want)
		}
		out := make([][]float64, want)
		for _, d := range openaiOut.Data {
			if d.Index < 0 || d.Index >= want || out[d.Index] != nil || len(d.Embedding) == 0 {
				return nil, fmt.Errorf("invalid embedding at index %d", d.Index)
			}
			out[d.Index] = d.Embedding
		}
		return out, nil
	}
	var ollamaOut struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.Unmarshal(payload, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 && want == 1 {
		return [][]float64{ollamaOut.Embedding}, nil
	}
	return nil, errNoEmbedding
}
