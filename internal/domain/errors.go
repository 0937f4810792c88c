package domain

import (
	"errors"
	"fmt"
)

// Error categories surfaced by the core. Concrete failures wrap one of these
// so callers can branch with errors.Is.
var (
	ErrIngestion        = errors.New("smallchain: ingestion failed")
	ErrEmbeddingService = errors.New("smallchain: embedding service error")
	ErrSimilarity       = errors.New("smallchain: similarity undefined")
	ErrPipelineStage    = errors.New("smallchain: pipeline stage failed")
	ErrStreamDecode     = errors.New("smallchain: tool call decode failed")
	ErrUnknownTool      = errors.New("smallchain: unknown tool")
	ErrEmptyEmbedding   = fmt.Errorf("%w: empty embedding", ErrIngestion)
)

// ErrIncompleteToolCall reports a stream that stopped inside a tool-call
// region. It also matches ErrStreamDecode.
var ErrIncompleteToolCall error = &incompleteError{}

type incompleteError struct{}

func (*incompleteError) Error() string { return "smallchain: incomplete tool call" }

// Is lets errors.Is(ErrIncompleteToolCall, ErrStreamDecode) hold.
func (*incompleteError) Is(target error) bool { return target == ErrStreamDecode }

// StageError wraps the failure of a named pipeline stage.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

func (e *StageError) Is(target error) bool { return target == ErrPipelineStage }

// EmbeddingError is returned by embedding adapters for upstream failures.
type EmbeddingError struct {
	Provider string
	Status   int
	Err      error
}

func (e *EmbeddingError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s embeddings: status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s embeddings: %v", e.Provider, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

func (e *EmbeddingError) Is(target error) bool { return target == ErrEmbeddingService }
