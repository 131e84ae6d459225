// Package retrieval provides a small similarity-search store over free-text
// documents. Vectors come from a deterministic hash embedding, so the same
// text always maps to the same vector and scores are reproducible.
package retrieval

import (
	"crypto/sha256"
	"math"
)

// DefaultDim is the embedding width used when none is configured.
const DefaultDim = 128

// Embed maps text to a unit-length vector of the given dimension. The sha256
// digest is repeated and cropped to dim, then L2-normalised. This is not
// semantic; it only guarantees stable vectors.
func Embed(text string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultDim
	}
	digest := sha256.Sum256([]byte(text))

	vec := make([]float32, dim)
	var sumSq float64
	for i := range vec {
		v := float32(digest[i%len(digest)])
		vec[i] = v
		sumSq += float64(v) * float64(v)
	}

	norm := float32(math.Sqrt(sumSq))
	if norm == 0 {
		norm = 1
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
