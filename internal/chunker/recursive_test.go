package chunker

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"smallchain/internal/domain"
)

func TestRecursiveSplitter_EmptyInput_ReturnsNoChunks(t *testing.T) {
	s := NewRecursiveSplitter(100, 0)
	if chunks := s.Split(""); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty input, got %d", len(chunks))
	}
}

func TestRecursiveSplitter_WhitespaceOnly_ReturnsNoChunks(t *testing.T) {
	s := NewRecursiveSplitter(100, 0)
	if chunks := s.Split("    "); len(chunks) != 0 {
		t.Errorf("expected 0 chunks for whitespace-only input, got %q", chunks)
	}
}

func TestRecursiveSplitter_ShortText_ReturnsSingleChunk(t *testing.T) {
	s := NewRecursiveSplitter(100, 0)
	got := s.Split("hello world")
	want := []string{"hello world"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursiveSplitter_GreedyMerge(t *testing.T) {
	s := NewRecursiveSplitter(10, 0)
	got := s.Split("aaaa bbbb cccc")
	want := []string{"aaaa bbbb", "cccc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursiveSplitter_Overlap_RepeatsTail(t *testing.T) {
	s := NewRecursiveSplitter(10, 4)
	got := s.Split("aaaa bbbb cccc")
	want := []string{"aaaa bbbb", "bbbb cccc"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursiveSplitter_RecursesIntoOversizedPiece(t *testing.T) {
	s := NewRecursiveSplitter(10, 0)
	got := s.Split("para one\n\npara two is long")
	want := []string{"para one", "para two", "is long"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursiveSplitter_CharacterFallback(t *testing.T) {
	s := NewRecursiveSplitter(3, 0)
	got := s.Split("abcdefghij")
	want := []string{"abc", "def", "ghi", "j"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursiveSplitter_CountsRunesNotBytes(t *testing.T) {
	s := NewRecursiveSplitter(2, 0)
	got := s.Split("çğıöşü")
	want := []string{"çğ", "ıö", "şü"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursiveSplitter_CustomSeparators(t *testing.T) {
	s := NewRecursiveSplitter(1, 0, WithSeparators("|"))
	got := s.Split("a|b|c")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursiveSplitter_ExhaustedSeparators_EmitsAtomicPiece(t *testing.T) {
	s := NewRecursiveSplitter(2, 0, WithSeparators("|"))
	got := s.Split("abc|d")
	want := []string{"abc", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursiveSplitter_LengthFunc(t *testing.T) {
	// Measure in bytes: "é" is 2 bytes, so only one fits per chunk.
	s := NewRecursiveSplitter(3, 0, WithLengthFunc(func(s string) int { return len(s) }))
	got := s.Split("éé")
	want := []string{"é", "é"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRecursiveSplitter_ClampsBadParameters(t *testing.T) {
	s := NewRecursiveSplitter(0, 5000)
	if s.limit != defaultLimit {
		t.Errorf("expected limit %d, got %d", defaultLimit, s.limit)
	}
	if s.overlap != defaultLimit-1 {
		t.Errorf("expected overlap %d, got %d", defaultLimit-1, s.overlap)
	}
	if n := NewRecursiveSplitter(10, -3).overlap; n != 0 {
		t.Errorf("expected negative overlap clamped to 0, got %d", n)
	}
}

func randomText(r *rand.Rand, words int) string {
	vocab := []string{"go", "chunk", "vector", "stream", "tool", "merge", "ankara", "şehir", "a", "retrieval"}
	seps := []string{" ", " ", " ", " ", "\n", "\n\n"}
	var b strings.Builder
	for i := 0; i < words; i++ {
		if i > 0 {
			b.WriteString(seps[r.Intn(len(seps))])
		}
		b.WriteString(vocab[r.Intn(len(vocab))])
	}
	return b.String()
}

func TestRecursiveSplitter_NoChunkExceedsLimit(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for _, limit := range []int{1, 5, 12, 40, 200} {
		for _, overlap := range []int{0, 3, 10} {
			s := NewRecursiveSplitter(limit, overlap)
			for i := 0; i < 20; i++ {
				text := randomText(r, 5+r.Intn(120))
				for _, c := range s.Split(text) {
					if n := utf8.RuneCountInString(c); n > limit {
						t.Fatalf("limit=%d overlap=%d: chunk %q has length %d", limit, overlap, c, n)
					}
				}
			}
		}
	}
}

func TestRecursiveSplitter_RejoinReconstructsWords(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	// Every vocabulary word fits in the limit, so chunk boundaries always
	// fall on whitespace.
	s := NewRecursiveSplitter(24, 0)
	for i := 0; i < 50; i++ {
		text := randomText(r, 1+r.Intn(200))
		got := strings.Fields(strings.Join(s.Split(text), " "))
		want := strings.Fields(text)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("rejoined words differ for %q:\ngot  %q\nwant %q", text, got, want)
		}
	}
}

func TestRecursiveSplitter_Deterministic(t *testing.T) {
	text := randomText(rand.New(rand.NewSource(1)), 300)
	s := NewRecursiveSplitter(50, 10)
	if !reflect.DeepEqual(s.Split(text), s.Split(text)) {
		t.Error("expected identical output for identical input")
	}
}

func TestChunker_NumbersChunksInOrder(t *testing.T) {
	c := New(NewRecursiveSplitter(10, 0))
	chunks, err := c.Chunk(domain.Document{ID: "doc-1", Text: "aaaa bbbb cccc"})
	if err != nil {
		t.Fatalf("Chunk failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
		if ch.DocumentID != "doc-1" {
			t.Errorf("chunk %d has document id %q", i, ch.DocumentID)
		}
	}
}

func TestChunker_EmptyDocument_ReturnsIngestionError(t *testing.T) {
	c := New(nil)
	_, err := c.Chunk(domain.Document{ID: "empty", Text: " \n\t"})
	if !errors.Is(err, domain.ErrIngestion) {
		t.Errorf("expected ErrIngestion, got %v", err)
	}
}
