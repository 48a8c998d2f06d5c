// Package embedding contains the post-processing rules applied to raw
// model vectors before they are returned to clients.
package embedding

import (
	"fmt"
	"math"
	"math/rand"
)

// DefaultTargetDimension is the vector length promised to clients
// unless overridden in configuration.
const DefaultTargetDimension = 768

// Normalizer repairs raw model output to a fixed target dimension.
//
// Three cases:
//   - an all-zero (or empty) vector is replaced with a random unit
//     vector, a fallback against a dead or untrained model
//   - a shorter vector is right-padded with zeros
//   - an exact-length vector passes through unchanged
//
// A vector longer than the target dimension is a configuration error;
// truncating it would silently discard model output.
type Normalizer struct {
	dim int
	rng *rand.Rand
}

// NewNormalizer creates a Normalizer with the given target dimension.
// If rng is nil a randomly seeded source is used; tests inject a
// seeded one for deterministic fallback vectors.
func NewNormalizer(dim int, rng *rand.Rand) (*Normalizer, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding: target dimension must be positive, got %d", dim)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Normalizer{dim: dim, rng: rng}, nil
}

// TargetDimension returns the fixed output vector length.
func (n *Normalizer) TargetDimension() int {
	return n.dim
}

// Normalize returns a vector of exactly the target dimension.
// The returned slice is the input itself only in the exact-length
// pass-through case.
func (n *Normalizer) Normalize(raw []float64) ([]float64, error) {
	if len(raw) > n.dim {
		return nil, &DimensionError{Got: len(raw), Want: n.dim}
	}

	// An empty vector counts as degenerate: zero-padding it would
	// produce an all-zero output, which the response contract forbids.
	if isDegenerate(raw) {
		return n.syntheticUnit(), nil
	}

	if len(raw) == n.dim {
		return raw, nil
	}

	padded := make([]float64, n.dim)
	copy(padded, raw)
	return padded, nil
}

// isDegenerate reports whether every component is exactly zero.
func isDegenerate(v []float64) bool {
	for _, c := range v {
		if c != 0 {
			return false
		}
	}
	return true
}

// syntheticUnit draws each component uniformly from [-1, 1), resampling
// on an exact-zero draw, then scales the vector to unit Euclidean norm.
func (n *Normalizer) syntheticUnit() []float64 {
	v := make([]float64, n.dim)
	for i := range v {
		c := 0.0
		for c == 0 {
			c = n.rng.Float64()*2 - 1
		}
		v[i] = c
	}

	var sum float64
	for _, c := range v {
		sum += c * c
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
	return v
}
