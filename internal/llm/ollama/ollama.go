// Package ollama streams chat completions from a local Ollama server via
// POST /api/chat.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smallchain/internal/domain"
	"smallchain/internal/llm"
)

type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client implements domain.ChatStreamer.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2:3b"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		t := cfg.Timeout
		if t == 0 {
			t = 60 * time.Second
		}
		hc = &http.Client{Transport: &http.Transport{ResponseHeaderTimeout: t}}
	}
	return &Client{baseURL: strings.TrimRight(cfg.BaseURL, "/"), model: cfg.Model, http: hc}
}

type chatRequest struct {
	Model    string           `json:"model"`
	Messages []domain.Message `json:"messages"`
	Stream   bool             `json:"stream"`
}

type chatLine struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Message   struct {
		Content string `json:"content"`
	} `json:"message"`
	Done  bool   `json:"done"`
	Error string `json:"error"`
}

func (c *Client) StreamChat(ctx context.Context, messages []domain.Message) (domain.FrameStream, error) {
	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages, Stream: true})
	if err != nil {
		return nil, err
	}
	rc, err := llm.Post(ctx, c.http, c.baseURL+"/api/chat", body, nil)
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", err)
	}
	return llm.NewLineStream(rc, decodeLine), nil
}

// decodeLine maps one NDJSON line. The done line carries the metadata.
func decodeLine(line []byte) (domain.Frame, llm.Decision, error) {
	var l chatLine
	if err := json.Unmarshal(line, &l); err != nil {
		return domain.Frame{}, llm.Stop, fmt.Errorf("ollama chat: decode line: %w", err)
	}
	if l.Error != "" {
		return domain.Frame{}, llm.Stop, fmt.Errorf("ollama chat: %s", l.Error)
	}
	if l.Done {
		meta := &domain.Metadata{Model: l.Model, Created: l.CreatedAt.Unix()}
		meta.ID = fmt.Sprintf("ollama-%d", l.CreatedAt.UnixNano())
		return domain.Frame{Content: l.Message.Content, Meta: meta}, llm.EmitAndStop, nil
	}
	return domain.Frame{Content: l.Message.Content}, llm.Emit, nil
}
