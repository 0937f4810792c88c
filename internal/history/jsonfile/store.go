// Package jsonfile stores each conversation as <dir>/<id>.json.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"smallchain/internal/history"
)

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("history dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid conversation id %q", id)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

// Save writes the conversation through a temp file and rename, so readers
// never see a partial file.
func (s *Store) Save(ctx context.Context, c history.Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(c.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, c.ID+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (s *Store) Load(ctx context.Context, id string) (history.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return history.Conversation{}, err
	}
	p, err := s.path(id)
	if err != nil {
		return history.Conversation{}, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return history.Conversation{}, fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	if err != nil {
		return history.Conversation{}, err
	}
	var c history.Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return history.Conversation{}, fmt.Errorf("decode %s: %w", p, err)
	}
	return c, nil
}
