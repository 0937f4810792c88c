package service

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"smallchain/internal/domain"
	"smallchain/internal/embedding"
	"smallchain/internal/logger"
	"smallchain/internal/vectorstore"
)

// Summarizer condenses the ingested text for display.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Stats describes a finished ingestion.
type Stats struct {
	Documents int
	Chunks    int
	Dimension int
	Summary   string
}

type IngestService struct {
	chunker             domain.Chunker
	embedder            domain.Embedder
	store               vectorstore.Storage
	summarizer          Summarizer
	summaryMaxSentences int
	concurrency         int
	batchSize           int
}

type IngestOption func(*IngestService)

// WithSummarizer adds a summary of all documents to Stats.
func WithSummarizer(s Summarizer, maxSentences int) IngestOption {
	return func(svc *IngestService) {
		svc.summarizer = s
		svc.summaryMaxSentences = maxSentences
	}
}

// WithConcurrency bounds parallel embedding batches.
func WithConcurrency(n int) IngestOption { return func(s *IngestService) { s.concurrency = n } }

func WithBatchSize(n int) IngestOption { return func(s *IngestService) { s.batchSize = n } }

func NewIngestService(chunker domain.Chunker, embedder domain.Embedder, store vectorstore.Storage, opts ...IngestOption) *IngestService {
	s := &IngestService{chunker: chunker, embedder: embedder, store: store, concurrency: 4, batchSize: 16}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest loads, chunks, embeds and stores every document, replacing what
// the store held before. Chunk ids are sequential in document order;
// chunks whose embedding is the zero vector are skipped.
func (s *IngestService) Ingest(ctx context.Context, loader domain.DocumentLoader) (Stats, error) {
	documents, err := loader.Load(ctx)
	if err != nil {
		return Stats{}, err
	}
	var allChunks []domain.Chunk
	var allTexts []string
	var allTextConcat strings.Builder
	metadata := make([]map[string]any, 0)
	for _, d := range documents {
		chunks, err := s.chunker.Chunk(d)
		if err != nil {
			return Stats{}, fmt.Errorf("chunk %s: %w", d.ID, err)
		}
		for _, ch := range chunks {
			md := maps.Clone(d.Metadata)
			if md == nil {
				md = map[string]any{}
			}
			md["document_id"] = d.ID
			md["chunk_index"] = ch.Index
			metadata = append(metadata, md)
			allChunks = append(allChunks, ch)
			allTexts = append(allTexts, ch.Text)
		}
		allTextConcat.WriteString("\n")
		allTextConcat.WriteString(d.Text)
	}
	if len(allChunks) == 0 {
		return Stats{}, fmt.Errorf("%w: no chunks produced", domain.ErrIngestion)
	}
	logger.Info("chunked documents", "documents", len(documents), "chunks", len(allChunks))

	if err := s.embedder.Prepare(allTexts); err != nil {
		return Stats{}, err
	}
	vectors, err := embedding.EmbedAll(ctx, s.embedder, allTexts, s.concurrency, s.batchSize)
	if err != nil {
		return Stats{}, err
	}
	docs := make([]domain.EmbeddedDocument, 0, len(allChunks))
	for i := range allChunks {
		if vectorstore.Magnitude(vectors[i]) == 0 {
			// Cosine similarity is undefined for it; the chunk can never match.
			logger.Info("skipping chunk with zero embedding", "document_id", metadata[i]["document_id"], "chunk_index", allChunks[i].Index)
			continue
		}
		d, err := domain.NewEmbeddedDocument(len(docs), allChunks[i].Text, metadata[i], vectors[i])
		if err != nil {
			return Stats{}, fmt.Errorf("chunk %d: %w", i, err)
		}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return Stats{}, fmt.Errorf("%w: every chunk embedded to a zero vector", domain.ErrIngestion)
	}
	if err := s.store.Init(docs[0].Dimension()); err != nil {
		return Stats{}, err
	}
	if err := s.store.Upsert(docs); err != nil {
		return Stats{}, err
	}
	logger.Info("indexed chunks", "embedder", s.embedder.Name(), "dimension", docs[0].Dimension())

	stats := Stats{Documents: len(documents), Chunks: len(docs), Dimension: docs[0].Dimension()}
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(allTextConcat.String(), s.summaryMaxSentences)
		if err != nil {
			return Stats{}, err
		}
		stats.Summary = summary
	}
	return stats, nil
}
