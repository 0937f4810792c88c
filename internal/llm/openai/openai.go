// Package openai streams chat completions from OpenAI-compatible and Azure
// OpenAI endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"smallchain/internal/domain"
	"smallchain/internal/llm"
)

type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	// APIVersion switches to Azure mode: api-key header and api-version
	// query parameter. Model is then the deployment name.
	APIVersion  string
	Temperature float64
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// Client implements domain.ChatStreamer.
type Client struct {
	endpoint string
	header   http.Header
	model    string
	temp     float64
	http     *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	endpoint, err := url.JoinPath(cfg.BaseURL, "chat", "completions")
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	header := http.Header{}
	if cfg.APIVersion != "" {
		endpoint += "?" + url.Values{"api-version": {cfg.APIVersion}}.Encode()
		header.Set("api-key", key)
	} else {
		header.Set("Authorization", "Bearer "+key)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		// No overall timeout: streams outlive any fixed deadline. Timeout
		// bounds the wait for response headers instead.
		t := cfg.Timeout
		if t == 0 {
			t = 60 * time.Second
		}
		hc = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: t,
		}}
	}
	return &Client{endpoint: endpoint, header: header, model: cfg.Model, temp: cfg.Temperature, http: hc}, nil
}

type chatRequest struct {
	Model         string           `json:"model"`
	Messages      []domain.Message `json:"messages"`
	Stream        bool             `json:"stream"`
	StreamOptions struct {
		IncludeUsage bool `json:"include_usage"`
	} `json:"stream_options"`
	Temperature float64 `json:"temperature,omitempty"`
}

type chunk struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// StreamChat starts a streaming completion for messages.
func (c *Client) StreamChat(ctx context.Context, messages []domain.Message) (domain.FrameStream, error) {
	req := chatRequest{Model: c.model, Messages: messages, Stream: true, Temperature: c.temp}
	req.StreamOptions.IncludeUsage = true
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	rc, err := llm.Post(ctx, c.http, c.endpoint, body, c.header)
	if err != nil {
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	return llm.NewLineStream(rc, newDecoder()), nil
}

var (
	dataPrefix = []byte("data:")
	doneMarker = []byte("[DONE]")
)

// newDecoder maps SSE lines to frames. A chunk without choices but with an
// id is the final usage chunk and becomes the metadata frame. When the
// server sends none, [DONE] produces one from the last chunk seen.
func newDecoder() llm.LineDecoder {
	var last domain.Metadata
	sentMeta := false
	return func(line []byte) (domain.Frame, llm.Decision, error) {
		if !bytes.HasPrefix(line, dataPrefix) {
			// event:, id:, retry: and comments.
			return domain.Frame{}, llm.Skip, nil
		}
		data := bytes.TrimSpace(line[len(dataPrefix):])
		if bytes.Equal(data, doneMarker) {
			if sentMeta || last.ID == "" {
				return domain.Frame{}, llm.Stop, nil
			}
			meta := last
			return domain.Frame{Meta: &meta}, llm.EmitAndStop, nil
		}
		var ch chunk
		if err := json.Unmarshal(data, &ch); err != nil {
			return domain.Frame{}, llm.Stop, fmt.Errorf("openai chat: decode chunk: %w", err)
		}
		if ch.ID != "" {
			last = domain.Metadata{ID: ch.ID, Created: ch.Created, Model: ch.Model}
		}
		if len(ch.Choices) == 0 {
			if ch.ID == "" {
				return domain.Frame{}, llm.Emit, nil
			}
			sentMeta = true
			meta := last
			return domain.Frame{Meta: &meta}, llm.Emit, nil
		}
		return domain.Frame{Content: ch.Choices[0].Delta.Content}, llm.Emit, nil
	}
}
