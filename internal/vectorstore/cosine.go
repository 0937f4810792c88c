package vectorstore

import (
	"fmt"
	"math"

	"smallchain/internal/domain"
)

// CosineSimilarity computes the cosine of the angle between a and b. It
// returns an error wrapping domain.ErrSimilarity if the vectors have
// different lengths, are empty, or either has zero magnitude.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: dimension mismatch %d vs %d", domain.ErrSimilarity, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vectors", domain.ErrSimilarity)
	}
	var dot, na2, nb2 float64
	for i := range a {
		dot += a[i] * b[i]
		na2 += a[i] * a[i]
		nb2 += b[i] * b[i]
	}
	if na2 == 0 || nb2 == 0 {
		return 0, fmt.Errorf("%w: zero-magnitude vector", domain.ErrSimilarity)
	}
	return dot / (math.Sqrt(na2) * math.Sqrt(nb2)), nil
}

// Magnitude returns the L2 norm of v.
func Magnitude(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
