// Package summarizer picks the most representative sentences of a text.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	sentenceRe = regexp.MustCompile(`[^.!?\n]+(?:[.!?]+|$)`)
	wordRe     = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

const defaultMaxSentences = 5

// Frequency scores each sentence by the normalized frequency of its
// non-stopword terms and keeps the best ones in their original order.
type Frequency struct {
	stopwords map[string]struct{}
}

// DefaultStopwords is used when NewFrequency gets no words.
var DefaultStopwords = []string{
	// en
	"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "has", "have", "had",
	// tr
	"ve", "ile", "bir", "bu", "da", "de", "mi", "ne", "için", "gibi", "çok", "daha",
}

func NewFrequency(stopwords ...string) *Frequency {
	if len(stopwords) == 0 {
		stopwords = DefaultStopwords
	}
	f := &Frequency{stopwords: make(map[string]struct{}, len(stopwords))}
	for _, w := range stopwords {
		f.stopwords[strings.ToLower(w)] = struct{}{}
	}
	return f
}

// Summarize returns at most maxSentences sentences joined by spaces. Text
// without sentence punctuation comes back trimmed.
func (f *Frequency) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = defaultMaxSentences
	}
	var sentences []string
	seen := map[string]struct{}{}
	for _, raw := range sentenceRe.FindAllString(text, -1) {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		sentences = append(sentences, s)
	}
	if len(sentences) <= maxSentences {
		return strings.Join(sentences, " "), nil
	}

	terms := make([][]string, len(sentences))
	freq := map[string]float64{}
	var top float64
	for i, s := range sentences {
		terms[i] = f.terms(s)
		for _, t := range terms[i] {
			freq[t]++
			top = math.Max(top, freq[t])
		}
	}

	scores := make([]float64, len(sentences))
	for i, ts := range terms {
		if len(ts) == 0 {
			continue
		}
		var sum float64
		for _, t := range ts {
			sum += freq[t] / top
		}
		scores[i] = sum / math.Sqrt(float64(len(ts)))
	}
	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	keep := order[:maxSentences]
	sort.Ints(keep)

	out := make([]string, len(keep))
	for i, idx := range keep {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

func (f *Frequency) terms(sentence string) []string {
	words := wordRe.FindAllString(strings.ToLower(sentence), -1)
	out := words[:0]
	for _, w := range words {
		if _, stop := f.stopwords[w]; !stop {
			out = append(out, w)
		}
	}
	return out
}
