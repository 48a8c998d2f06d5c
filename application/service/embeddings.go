// Package service orchestrates the embedding request pipeline:
// provider inference followed by vector normalization.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/embedworks/embedd/domain/embedding"
	"github.com/embedworks/embedd/infrastructure/provider"
)

// Default limits applied when no option overrides them.
const (
	DefaultMaxInFlight    = 8
	DefaultRequestTimeout = 60 * time.Second
)

// Embeddings runs the per-request pipeline. The provider is shared
// read-only across requests; a weighted semaphore bounds concurrent
// inference so parallel traffic cannot exhaust memory.
type Embeddings struct {
	embedder   provider.Embedder
	normalizer *embedding.Normalizer
	limiter    *semaphore.Weighted
	timeout    time.Duration
	logger     *slog.Logger
}

// EmbeddingsOption configures an Embeddings service.
type EmbeddingsOption func(*Embeddings)

// WithMaxInFlight bounds the number of concurrently served embedding
// requests.
func WithMaxInFlight(n int) EmbeddingsOption {
	return func(s *Embeddings) {
		if n > 0 {
			s.limiter = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRequestTimeout bounds the time spent on a single request,
// inference included.
func WithRequestTimeout(d time.Duration) EmbeddingsOption {
	return func(s *Embeddings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) EmbeddingsOption {
	return func(s *Embeddings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewEmbeddings creates the pipeline service.
func NewEmbeddings(embedder provider.Embedder, normalizer *embedding.Normalizer, opts ...EmbeddingsOption) (*Embeddings, error) {
	if embedder == nil {
		return nil, fmt.Errorf("NewEmbeddings: nil embedder")
	}
	if normalizer == nil {
		return nil, fmt.Errorf("NewEmbeddings: nil normalizer")
	}

	s := &Embeddings{
		embedder:   embedder,
		normalizer: normalizer,
		limiter:    semaphore.NewWeighted(DefaultMaxInFlight),
		timeout:    DefaultRequestTimeout,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TargetDimension returns the fixed vector length of every generated
// embedding.
func (s *Embeddings) TargetDimension() int {
	return s.normalizer.TargetDimension()
}

// Generate embeds every text in the batch and normalizes each result
// to the target dimension. The returned slice has one vector per input,
// in input order.
func (s *Embeddings) Generate(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	if err := s.limiter.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.limiter.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.embedder.Embed(ctx, provider.NewEmbeddingRequest(texts))
	if err != nil {
		s.logger.ErrorContext(ctx, "embedding inference failed", "inputs", len(texts), "error", err)
		return nil, NewInferenceError(err)
	}

	raw := resp.Embeddings()
	if len(raw) != len(texts) {
		return nil, NewInferenceError(fmt.Errorf("got %d vectors for %d inputs", len(raw), len(texts)))
	}

	vectors := make([][]float64, len(raw))
	for i, vec := range raw {
		normalized, err := s.normalizer.Normalize(vec)
		if err != nil {
			return nil, err
		}
		vectors[i] = normalized
	}

	s.logger.DebugContext(ctx, "embedding batch served",
		"inputs", len(texts),
		"dimension", s.normalizer.TargetDimension(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return vectors, nil
}
