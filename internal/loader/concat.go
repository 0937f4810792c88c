package loader

import (
	"context"
	"errors"

	"smallchain/internal/domain"
)

// Concat runs loaders in order and joins their documents. A loader that
// finds no files of its type is skipped; Concat fails with ErrNoDocuments
// only if every loader does.
type Concat []domain.DocumentLoader

func (c Concat) Load(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	for _, l := range c {
		got, err := l.Load(ctx)
		if errors.Is(err, ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, got...)
	}
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}
	return docs, nil
}
