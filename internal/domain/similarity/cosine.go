// Package similarity implements the vector similarity used for corpus matching.
package similarity

import "math"

// Cosine returns dot(a,b) / (|a|*|b|), computed in float64.
// Either vector having zero magnitude yields exactly 0. Vectors of different length are
// compared over the shorter prefix; the corpus loader guarantees equal lengths in practice.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
