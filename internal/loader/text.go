// Package loader reads documents from the filesystem.
package loader

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"smallchain/internal/domain"
)

// DefaultExtensions are the file types TextLoader accepts.
var DefaultExtensions = []string{".txt", ".md"}

// ErrNoDocuments reports that no path matched a loader's file types.
var ErrNoDocuments = fmt.Errorf("%w: no documents found", domain.ErrIngestion)

// TextLoader loads plain-text files. Paths may be globs; documents come out
// in argument order, each glob's matches in lexical order.
type TextLoader struct {
	Paths      []string
	Extensions []string
}

func NewTextLoader(paths ...string) *TextLoader {
	return &TextLoader{Paths: paths, Extensions: DefaultExtensions}
}

func (l *TextLoader) Load(ctx context.Context) ([]domain.Document, error) {
	paths, err := expand(ctx, l.Paths, l.exts())
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(paths))
	for _, p := range paths {
		doc, err := readDocument(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrNoDocuments, strings.Join(l.exts(), "/"))
	}
	return docs, nil
}

func (l *TextLoader) exts() []string {
	if len(l.Extensions) == 0 {
		return DefaultExtensions
	}
	return l.Extensions
}

// expand resolves globs in argument order, each glob's matches sorted, and
// keeps the first occurrence of every path whose extension is in exts.
// A pattern matching nothing is kept as a literal path.
func expand(ctx context.Context, patterns, exts []string) ([]string, error) {
	var out []string
	seen := map[string]struct{}{}
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", domain.ErrIngestion, p, err)
		}
		if matches == nil {
			matches = []string{p}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !hasExt(m, exts) {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func readDocument(path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrIngestion, err)
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return domain.Document{}, fmt.Errorf("%w: %s has no text", domain.ErrIngestion, path)
	}
	return domain.Document{
		ID:   hashString(path),
		Text: text,
		Metadata: map[string]any{
			"file_name": filepath.Base(path),
			"path":      path,
			"bytes":     len(data),
		},
	}, nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
