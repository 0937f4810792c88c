package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smallchain/internal/domain"
	"smallchain/internal/tools"
)

type searchFunc func(ctx context.Context, q string) ([]domain.SearchResult, error)

func (f searchFunc) Search(ctx context.Context, q string) ([]domain.SearchResult, error) {
	return f(ctx, q)
}

func result(t *testing.T, rank int, text string, score float64) domain.SearchResult {
	t.Helper()
	d, err := domain.NewEmbeddedDocument(rank, text, map[string]any{"file_name": "notes.txt"}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	return domain.SearchResult{Document: d, Score: score, Rank: rank}
}

func TestTool_ExecuteThroughRegistry(t *testing.T) {
	var got string
	reg := tools.NewRegistry()
	err := Register(reg, searchFunc(func(_ context.Context, q string) ([]domain.SearchResult, error) {
		got = q
		return []domain.SearchResult{result(t, 1, "Ankara is the capital.", 0.9), result(t, 2, "It has a castle.", 0.4)}, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	out, err := reg.Execute(context.Background(), domain.ToolInvocation{Name: Name, Parameters: map[string]any{"query": "capital"}})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "capital" {
		t.Errorf("searcher received %q", got)
	}
	want := "[1] score=0.900 source=notes.txt\nAnkara is the capital.\n\n[2] score=0.400 source=notes.txt\nIt has a castle."
	if out != want {
		t.Errorf("output:\n%s\nwant:\n%s", out, want)
	}
}

func TestTool_MissingQuery(t *testing.T) {
	reg := tools.NewRegistry()
	_ = Register(reg, searchFunc(func(context.Context, string) ([]domain.SearchResult, error) { return nil, nil }))
	if _, err := reg.Execute(context.Background(), domain.ToolInvocation{Name: Name, Parameters: map[string]any{}}); err == nil {
		t.Error("expected error for missing query")
	}
}

func TestTool_SearchError(t *testing.T) {
	reg := tools.NewRegistry()
	_ = Register(reg, searchFunc(func(context.Context, string) ([]domain.SearchResult, error) {
		return nil, errors.New("index offline")
	}))
	_, err := reg.Execute(context.Background(), domain.ToolInvocation{Name: Name, Parameters: map[string]any{"query": "x"}})
	if err == nil || !strings.Contains(err.Error(), "index offline") {
		t.Errorf("expected search error, got %v", err)
	}
}

func TestFormat_Empty(t *testing.T) {
	if got := Format(nil); got != "No matching passages." {
		t.Errorf("Format(nil) = %q", got)
	}
}
