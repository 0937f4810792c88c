package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order; the trailing empty separator splits
// per character and guarantees termination.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

const defaultLimit = 1000

// LengthFunc measures a piece of text in the units of the chunk limit.
type LengthFunc func(string) int

// Option configures a RecursiveSplitter.
type Option func(*RecursiveSplitter)

// WithSeparators replaces the default separator list.
func WithSeparators(separators ...string) Option {
	return func(s *RecursiveSplitter) {
		if len(separators) > 0 {
			s.separators = append([]string(nil), separators...)
		}
	}
}

// WithLengthFunc replaces the default rune-count length function.
func WithLengthFunc(fn LengthFunc) Option {
	return func(s *RecursiveSplitter) {
		if fn != nil {
			s.length = fn
		}
	}
}

// RecursiveSplitter splits text into chunks no longer than limit, trying
// coarse separators first and recursing into oversized pieces with the
// remaining, narrower separators.
type RecursiveSplitter struct {
	limit      int
	overlap    int
	separators []string
	length     LengthFunc
}

// NewRecursiveSplitter creates a splitter. A non-positive limit falls back to
// 1000; overlap is clamped to [0, limit-1].
func NewRecursiveSplitter(limit, overlap int, opts ...Option) *RecursiveSplitter {
	if limit <= 0 {
		limit = defaultLimit
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= limit {
		overlap = limit - 1
	}
	s := &RecursiveSplitter{
		limit:      limit,
		overlap:    overlap,
		separators: DefaultSeparators,
		length:     utf8.RuneCountInString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split returns the chunks of text in document order.
func (s *RecursiveSplitter) Split(text string) []string {
	if text == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *RecursiveSplitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, sep := range separators {
		if sep == "" {
			separator = ""
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			rest = separators[i+1:]
			break
		}
	}

	var chunks, good []string
	for _, piece := range strings.Split(text, separator) {
		if piece == "" {
			continue
		}
		if s.length(piece) <= s.limit {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			chunks = append(chunks, s.merge(good, separator)...)
			good = nil
		}
		if len(rest) == 0 {
			// Nothing narrower to try: the piece is atomic.
			chunks = appendTrimmed(chunks, piece)
			continue
		}
		chunks = append(chunks, s.split(piece, rest)...)
	}
	if len(good) > 0 {
		chunks = append(chunks, s.merge(good, separator)...)
	}
	return chunks
}

// merge greedily joins pieces (each within limit) into chunks. When a chunk
// is emitted, its trailing pieces whose combined length fits overlap are kept
// as the head of the next chunk.
func (s *RecursiveSplitter) merge(pieces []string, separator string) []string {
	sepLen := s.length(separator)
	var (
		chunks  []string
		current []string
		total   int
	)
	joinCost := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}
	for _, piece := range pieces {
		n := s.length(piece)
		if len(current) > 0 && total+joinCost()+n > s.limit {
			chunks = appendTrimmed(chunks, strings.Join(current, separator))
			for len(current) > 0 && (total > s.overlap || total+joinCost()+n > s.limit) {
				total -= s.length(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		total += joinCost() + n
		current = append(current, piece)
	}
	if len(current) > 0 {
		chunks = appendTrimmed(chunks, strings.Join(current, separator))
	}
	return chunks
}

func appendTrimmed(chunks []string, chunk string) []string {
	if chunk = strings.TrimSpace(chunk); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
