package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/embedworks/embedd/domain/embedding"
	"github.com/embedworks/embedd/infrastructure/provider"
)

// stubEmbedder returns canned vectors and counts invocations.
type stubEmbedder struct {
	vectors [][]float64
	err     error
	calls   atomic.Int64

	mu    sync.Mutex
	block chan struct{}
}

func (s *stubEmbedder) Embed(ctx context.Context, req provider.EmbeddingRequest) (provider.EmbeddingResponse, error) {
	s.calls.Add(1)
	s.mu.Lock()
	block := s.block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return provider.EmbeddingResponse{}, ctx.Err()
		}
	}
	if s.err != nil {
		return provider.EmbeddingResponse{}, s.err
	}
	if s.vectors != nil {
		return provider.NewEmbeddingResponse(s.vectors, provider.NewUsage(0, 0, 0)), nil
	}
	out := make([][]float64, len(req.Texts()))
	for i := range out {
		out[i] = []float64{0.1, 0.2, 0.3}
	}
	return provider.NewEmbeddingResponse(out, provider.NewUsage(0, 0, 0)), nil
}

func (s *stubEmbedder) Close() error { return nil }

func newTestService(t *testing.T, emb provider.Embedder, opts ...EmbeddingsOption) *Embeddings {
	t.Helper()
	normalizer, err := embedding.NewNormalizer(8, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	svc, err := NewEmbeddings(emb, normalizer, opts...)
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddings_RequiresCollaborators(t *testing.T) {
	normalizer, err := embedding.NewNormalizer(8, nil)
	require.NoError(t, err)

	_, err = NewEmbeddings(nil, normalizer)
	require.Error(t, err)

	_, err = NewEmbeddings(&stubEmbedder{}, nil)
	require.Error(t, err)
}

func TestGenerate_EmptyInputNeverReachesProvider(t *testing.T) {
	stub := &stubEmbedder{}
	svc := newTestService(t, stub)

	_, err := svc.Generate(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyInput)
	require.Equal(t, int64(0), stub.calls.Load())
}

func TestGenerate_OneNormalizedVectorPerInput(t *testing.T) {
	stub := &stubEmbedder{}
	svc := newTestService(t, stub)

	texts := []string{"a", "b", "c", "d"}
	vectors, err := svc.Generate(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, vectors, len(texts))
	for i, vec := range vectors {
		require.Len(t, vec, 8, "vector %d", i)
		require.Equal(t, 0.1, vec[0])
		require.Equal(t, 0.0, vec[7], "padding must be zero")
	}
	require.Equal(t, int64(1), stub.calls.Load(), "one provider call per batch")
}

func TestGenerate_DegenerateVectorIsRepaired(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float64{make([]float64, 8)}}
	svc := newTestService(t, stub)

	vectors, err := svc.Generate(context.Background(), []string{"dead model"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	for i, c := range vectors[0] {
		require.NotZero(t, c, "component %d", i)
	}
}

func TestGenerate_ProviderFailureIsInferenceError(t *testing.T) {
	stub := &stubEmbedder{err: errors.New("tensor shape mismatch")}
	svc := newTestService(t, stub)

	_, err := svc.Generate(context.Background(), []string{"hello"})
	require.ErrorIs(t, err, ErrInference)

	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
}

func TestGenerate_CountMismatchIsInferenceError(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float64{{1, 2, 3}}}
	svc := newTestService(t, stub)

	_, err := svc.Generate(context.Background(), []string{"one", "two"})
	require.ErrorIs(t, err, ErrInference)
}

func TestGenerate_OverlongVectorIsDimensionError(t *testing.T) {
	stub := &stubEmbedder{vectors: [][]float64{{1, 2, 3, 4, 5, 6, 7, 8, 9}}}
	svc := newTestService(t, stub)

	_, err := svc.Generate(context.Background(), []string{"wide model"})
	require.Error(t, err)

	var dimErr *embedding.DimensionError
	require.ErrorAs(t, err, &dimErr)
	require.NotErrorIs(t, err, ErrInference)
}

func TestGenerate_LimiterHonorsCancellation(t *testing.T) {
	block := make(chan struct{})
	stub := &stubEmbedder{block: block}
	svc := newTestService(t, stub, WithMaxInFlight(1))

	// Occupy the single slot.
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		_, _ = svc.Generate(context.Background(), []string{"holder"})
		close(done)
	}()
	<-started

	// Give the holder time to acquire the semaphore.
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := svc.Generate(ctx, []string{"waiter"})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(block)
	<-done
	require.Equal(t, int64(1), stub.calls.Load(), "waiter must never reach the provider")
}

func TestGenerate_RequestTimeoutAbortsInference(t *testing.T) {
	stub := &stubEmbedder{block: make(chan struct{})}
	svc := newTestService(t, stub, WithRequestTimeout(30*time.Millisecond))

	_, err := svc.Generate(context.Background(), []string{"slow"})
	require.ErrorIs(t, err, ErrInference)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
