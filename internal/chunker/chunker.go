package chunker

import (
	"fmt"
	"strings"

	"smallchain/internal/domain"
)

// Chunker adapts a RecursiveSplitter to domain.Chunker.
type Chunker struct {
	splitter *RecursiveSplitter
}

func New(splitter *RecursiveSplitter) *Chunker {
	if splitter == nil {
		splitter = NewRecursiveSplitter(defaultLimit, 0)
	}
	return &Chunker{splitter: splitter}
}

// Chunk splits the document text and numbers the pieces in order.
func (c *Chunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(document.Text) == "" {
		return nil, fmt.Errorf("%w: document %q has no text", domain.ErrIngestion, document.ID)
	}
	texts := c.splitter.Split(document.Text)
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			Text:       text,
			Index:      i,
		})
	}
	return chunks, nil
}
