package domain

import "maps"

// Document represents a single raw document produced by a loader.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Chunk is a bounded-size fragment of a document used for indexing.
type Chunk struct {
	DocumentID string
	Text       string
	Index      int
}

// EmbeddedDocument is a chunk paired with its embedding. It cannot be
// modified after construction: accessors hand out copies.
type EmbeddedDocument struct {
	id        int
	text      string
	metadata  map[string]any
	embedding []float64
}

// NewEmbeddedDocument copies metadata and embedding into a new immutable document.
func NewEmbeddedDocument(id int, text string, metadata map[string]any, embedding []float64) (EmbeddedDocument, error) {
	if len(embedding) == 0 {
		return EmbeddedDocument{}, ErrEmptyEmbedding
	}
	vec := make([]float64, len(embedding))
	copy(vec, embedding)
	return EmbeddedDocument{
		id:        id,
		text:      text,
		metadata:  maps.Clone(metadata),
		embedding: vec,
	}, nil
}

func (d EmbeddedDocument) ID() int { return d.id }

func (d EmbeddedDocument) Text() string { return d.text }

// Dimension is the length of the embedding vector.
func (d EmbeddedDocument) Dimension() int { return len(d.embedding) }

// Metadata returns a shallow copy of the document metadata.
func (d EmbeddedDocument) Metadata() map[string]any {
	if d.metadata == nil {
		return map[string]any{}
	}
	return maps.Clone(d.metadata)
}

// Embedding returns a copy of the embedding vector.
func (d EmbeddedDocument) Embedding() []float64 {
	out := make([]float64, len(d.embedding))
	copy(out, d.embedding)
	return out
}

// SearchResult represents a matching document with its similarity score.
// Rank is 1-based.
type SearchResult struct {
	Document EmbeddedDocument
	Score    float64
	Rank     int
}

// Message is a single turn of a conversation sent to a generation service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Metadata describes a finished generation.
type Metadata struct {
	ID      string `json:"id"`
	Created int64  `json:"created"`
	Model   string `json:"model"`
}

// Frame is one element of a generation feed. A frame with Meta set is the
// terminal metadata frame; otherwise Content carries a delta. A frame with
// neither is informational.
type Frame struct {
	Content string
	Meta    *Metadata
}

// IsTerminal reports whether the frame carries generation metadata.
func (f Frame) IsTerminal() bool { return f.Meta != nil }

// ToolInvocation is a decoded tool-call directive.
type ToolInvocation struct {
	Name       string         `json:"name"`
	Parameters map[string]any `json:"parameters"`
}
