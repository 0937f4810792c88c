package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"smallchain/internal/domain"
)

// PDFLoader extracts the plain text of PDF files, pages joined by newlines.
// Images, tables and annotations are not extracted.
type PDFLoader struct {
	Paths []string
}

func NewPDFLoader(paths ...string) *PDFLoader {
	return &PDFLoader{Paths: paths}
}

func (l *PDFLoader) Load(ctx context.Context) ([]domain.Document, error) {
	paths, err := expand(ctx, l.Paths, []string{".pdf"})
	if err != nil {
		return nil, err
	}
	docs := make([]domain.Document, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := readPDF(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w for .pdf", ErrNoDocuments)
	}
	return docs, nil
}

func readPDF(path string) (doc domain.Document, err error) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: malformed pdf: %v", domain.ErrIngestion, path, r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("%w: %s: %v", domain.ErrIngestion, path, err)
	}
	defer f.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return domain.Document{}, fmt.Errorf("%w: %s page %d: %v", domain.ErrIngestion, path, i, err)
		}
		pages = append(pages, text)
	}
	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return domain.Document{}, fmt.Errorf("%w: %s has no text content", domain.ErrIngestion, path)
	}
	return domain.Document{
		ID:   hashString(path),
		Text: text,
		Metadata: map[string]any{
			"file_name": filepath.Base(path),
			"path":      path,
			"num_pages": n,
		},
	}, nil
}
