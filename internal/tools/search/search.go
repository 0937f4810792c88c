// Package search exposes the document retriever as the search_documents tool.
package search

import (
	"context"
	"fmt"
	"strings"

	"smallchain/internal/domain"
	"smallchain/internal/tools"
)

const Name = "search_documents"

// Searcher is satisfied by *retriever.Retriever.
type Searcher interface {
	Search(ctx context.Context, query string) ([]domain.SearchResult, error)
}

var Definition = tools.Definition{
	Name:        Name,
	Description: "Search the loaded documents for passages relevant to a query.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "What to look for in the documents",
			},
		},
		"required": []string{"query"},
	},
}

// Register adds the tool to r.
func Register(r *tools.Registry, s Searcher) error {
	return r.Register(Definition, func(params map[string]any) (tools.Runnable, error) {
		q, err := tools.StringParam(params, "query")
		if err != nil {
			return nil, err
		}
		return tools.RunnableFunc(func(ctx context.Context) (string, error) {
			results, err := s.Search(ctx, q)
			if err != nil {
				return "", err
			}
			return Format(results), nil
		}), nil
	})
}

// Format renders results one passage per block, best first.
func Format(results []domain.SearchResult) string {
	if len(results) == 0 {
		return "No matching passages."
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] score=%.3f", r.Rank, r.Score)
		if name, ok := r.Document.Metadata()["file_name"].(string); ok {
			fmt.Fprintf(&b, " source=%s", name)
		}
		b.WriteString("\n")
		b.WriteString(r.Document.Text())
	}
	return b.String()
}
