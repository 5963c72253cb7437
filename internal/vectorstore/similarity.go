package vectorstore

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned by arithmetic on vectors of different lengths
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// CosineSimilarity calculates the cosine similarity between two vectors
// Returns a value between -1 and 1, where 1 means identical direction.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dotProduct, normA, normB float64

	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0.0 || normB == 0.0 {
		return 0.0
	}

	sim := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// rounding can push identical vectors just past 1
	if sim > 1 {
		sim = 1
	} else if sim < -1 {
		sim = -1
	}
	return float32(sim)
}

// DotProduct calculates the dot product of two vectors
func DotProduct(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0.0
	}

	var product float64
	for i := 0; i < len(a); i++ {
		product += float64(a[i]) * float64(b[i])
	}

	return float32(product)
}

// NormalizeVector returns a unit-length copy of v. Zero vectors are returned as is.
func NormalizeVector(v []float32) []float32 {
	norm := Magnitude(v)
	if norm == 0.0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = val / norm
	}

	return normalized
}

// MagnitudeSquared calculates the squared magnitude of a vector
func MagnitudeSquared(v []float32) float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}
	return float32(sum)
}

// Magnitude calculates the magnitude (length) of a vector
func Magnitude(v []float32) float32 {
	return float32(math.Sqrt(float64(MagnitudeSquared(v))))
}

// Add returns a + b
func Add(a, b []float32) ([]float32, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("add %d and %d: %w", len(a), len(b), ErrDimensionMismatch)
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out, nil
}

// Subtract returns a - b
func Subtract(a, b []float32) ([]float32, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("subtract %d and %d: %w", len(a), len(b), ErrDimensionMismatch)
	}
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out, nil
}

// Scale returns v * s
func Scale(v []float32, s float32) []float32 {
	out := make([]float32, len(v))
	for i := range v {
		out[i] = v[i] * s
	}
	return out
}

// Mean returns the element-wise mean of vs
func Mean(vs ...[]float32) ([]float32, error) {
	if len(vs) == 0 {
		return nil, errors.New("mean of no vectors")
	}

	dim := len(vs[0])
	sum := make([]float64, dim)
	for _, v := range vs {
		if len(v) != dim {
			return nil, fmt.Errorf("mean over %d and %d: %w", dim, len(v), ErrDimensionMismatch)
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
	}

	out := make([]float32, dim)
	n := float64(len(vs))
	for i := range sum {
		out[i] = float32(sum[i] / n)
	}
	return out, nil
}
