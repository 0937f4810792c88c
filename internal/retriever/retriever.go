// Package retriever turns an embedded corpus into a query-time
// nearest-neighbour search.
package retriever

import (
	"context"
	"fmt"
	"strings"

	"smallchain/internal/domain"
	"smallchain/internal/vectorstore"
)

// DefaultSeparator joins retrieved texts.
const DefaultSeparator = "\n\n"

// Retriever is a read-only view over a corpus plus a result limit. Several
// retrievers may share one storage.
type Retriever struct {
	embedder  domain.Embedder
	store     vectorstore.Storage
	topK      int
	separator string
}

type Option func(*Retriever)

// WithTopK limits results to k. k <= 0 returns every ranked document.
func WithTopK(k int) Option { return func(r *Retriever) { r.topK = k } }

func WithSeparator(sep string) Option { return func(r *Retriever) { r.separator = sep } }

func New(embedder domain.Embedder, store vectorstore.Storage, opts ...Option) *Retriever {
	r := &Retriever{embedder: embedder, store: store, topK: 4, separator: DefaultSeparator}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Search embeds query once and ranks the corpus against it.
func (r *Retriever) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.store.Search(ctx, vec, r.topK)
}

// Retrieve returns the ranked document texts joined by the separator.
func (r *Retriever) Retrieve(ctx context.Context, query string) (string, error) {
	results, err := r.Search(ctx, query)
	if err != nil {
		return "", err
	}
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Document.Text()
	}
	return strings.Join(texts, r.separator), nil
}

// Invoke lets the retriever run as a pipeline stage. The input must be the
// query string.
func (r *Retriever) Invoke(ctx context.Context, input any) (any, error) {
	q, ok := input.(string)
	if !ok {
		return nil, &domain.StageError{Stage: "retriever", Err: fmt.Errorf("expected string query, got %T", input)}
	}
	out, err := r.Retrieve(ctx, q)
	if err != nil {
		return nil, &domain.StageError{Stage: "retriever", Err: err}
	}
	return out, nil
}
