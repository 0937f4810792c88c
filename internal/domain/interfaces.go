package domain

import "context"

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// DocumentLoader is the only contract the core needs from file or PDF loaders.
type DocumentLoader interface {
	Load(ctx context.Context) ([]Document, error)
}

// FrameStream is a pull-based feed of generation frames. Recv returns io.EOF
// once the upstream feed is exhausted.
type FrameStream interface {
	Recv() (Frame, error)
	Close() error
}

// ChatStreamer starts a streaming generation for an ordered message list.
type ChatStreamer interface {
	StreamChat(ctx context.Context, messages []Message) (FrameStream, error)
}
