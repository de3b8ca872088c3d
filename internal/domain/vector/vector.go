// Package vector holds the similarity math shared by the vector store backends.
package vector

import (
	"fmt"
	"math"

	"github.com/studyvault-app/studyvault/internal/domain"
)

// CosineSimilarity computes dot(a,b) / (|a|*|b|). Vectors of differing length
// are rejected rather than silently truncated. A zero-magnitude vector yields
// similarity 0, not NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", domain.ErrVectorDimMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
