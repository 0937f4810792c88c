// Package history persists conversations turn by turn.
package history

import (
	"context"
	"errors"
	"time"

	"smallchain/internal/domain"
)

var ErrNotFound = errors.New("history: conversation not found")

// Turn is a snapshot of the message list after one exchange, with the
// metadata of the generation that produced it.
type Turn struct {
	Messages []domain.Message `json:"messages"`
	Metadata *domain.Metadata `json:"metadata,omitempty"`
	At       time.Time        `json:"at"`
}

type Conversation struct {
	ID    string `json:"id"`
	Turns []Turn `json:"content"`
}

// Store saves whole conversations. Save replaces what was stored under the
// same id.
type Store interface {
	Save(ctx context.Context, c Conversation) error
	Load(ctx context.Context, id string) (Conversation, error)
}
