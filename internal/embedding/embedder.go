package embedding

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"smallchain/internal/domain"
)

// Embedder converts free text into a numeric vector representation.
type Embedder = domain.Embedder

// EmbedAll embeds texts in batches of batchSize with at most concurrency
// batches in flight. The result is in input order regardless of completion
// order; the first failure cancels the remaining batches.
func EmbedAll(ctx context.Context, e Embedder, texts []string, concurrency, batchSize int) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	out := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		g.Go(func() error {
			vecs, err := e.EmbedBatch(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return &domain.EmbeddingError{Provider: e.Name(), Err: fmt.Errorf("got %d embeddings for %d texts", len(vecs), end-start)}
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
