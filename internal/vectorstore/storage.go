package vectorstore

import (
	"context"

	"smallchain/internal/domain"
)

// Storage holds embedded documents and supports exhaustive similarity search.
type Storage interface {
	// Init fixes the dimensionality and drops every stored document.
	Init(dimension int) error
	Upsert(docs []domain.EmbeddedDocument) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error)
	Len() int
	Clear() error
}
