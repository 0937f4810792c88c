package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"smallchain/internal/domain"
	"smallchain/internal/vectorstore"
)

// Corpus is an in-memory, insertion-ordered set of embedded documents
// searched by brute-force cosine similarity. Searches may run concurrently.
type Corpus struct {
	mu        sync.RWMutex
	dimension int
	docs      []domain.EmbeddedDocument
	vectors   [][]float64
}

func NewCorpus() *Corpus { return &Corpus{} }

// Init resets the corpus and fixes the embedding dimensionality.
func (c *Corpus) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dimension = dimension
	c.docs = nil
	c.vectors = nil
	return nil
}

// Upsert appends documents in order. All embeddings must share the corpus
// dimensionality (adopted from the first document if Init was not called)
// and have non-zero magnitude.
func (c *Corpus) Upsert(docs []domain.EmbeddedDocument) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	dim := c.dimension
	vectors := make([][]float64, len(docs))
	for i, d := range docs {
		if dim == 0 {
			dim = d.Dimension()
		}
		if d.Dimension() != dim {
			return fmt.Errorf("%w: document %d has dimension %d, corpus has %d", domain.ErrSimilarity, d.ID(), d.Dimension(), dim)
		}
		v := d.Embedding()
		if vectorstore.Magnitude(v) == 0 {
			return fmt.Errorf("%w: document %d has a zero-magnitude embedding", domain.ErrSimilarity, d.ID())
		}
		vectors[i] = v
	}
	c.dimension = dim
	c.docs = append(c.docs, docs...)
	c.vectors = append(c.vectors, vectors...)
	return nil
}

// Search ranks every document by cosine similarity to vector, highest
// first; equal scores keep insertion order. topK <= 0 returns all documents.
func (c *Corpus) Search(ctx context.Context, vector []float64, topK int) ([]domain.SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	scores := make([]float64, len(c.vectors))
	for i := range c.vectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := vectorstore.CosineSimilarity(vector, c.vectors[i])
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	idxs := argsortDesc(scores)
	if topK <= 0 || topK > len(idxs) {
		topK = len(idxs)
	}
	results := make([]domain.SearchResult, 0, topK)
	for rank, j := range idxs[:topK] {
		results = append(results, domain.SearchResult{Document: c.docs[j], Score: scores[j], Rank: rank + 1})
	}
	return results, nil
}

func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// Documents returns the corpus documents in insertion order.
func (c *Corpus) Documents() []domain.EmbeddedDocument {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.EmbeddedDocument(nil), c.docs...)
}

func (c *Corpus) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs = nil
	c.vectors = nil
	return nil
}

func argsortDesc(vals []float64) []int {
	idxs := make([]int, len(vals))
	for i := range vals {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return vals[idxs[a]] > vals[idxs[b]] })
	return idxs
}
