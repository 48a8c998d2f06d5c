package embedd

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/embedworks/embedd/application/service"
	"github.com/embedworks/embedd/domain/embedding"
	"github.com/embedworks/embedd/infrastructure/provider"
)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	provider        provider.Embedder
	targetDimension int
	modelName       string
	maxInFlight     int
	requestTimeout  time.Duration
	rng             *rand.Rand
	logger          *slog.Logger
}

func newClientConfig() *clientConfig {
	return &clientConfig{
		targetDimension: embedding.DefaultTargetDimension,
		modelName:       "nomic-text-embed",
		maxInFlight:     service.DefaultMaxInFlight,
		requestTimeout:  service.DefaultRequestTimeout,
		logger:          slog.Default(),
	}
}

// Option configures a Client.
type Option func(*clientConfig)

// WithProvider sets the embedding provider. Required.
func WithProvider(p provider.Embedder) Option {
	return func(c *clientConfig) { c.provider = p }
}

// WithTargetDimension sets the fixed vector length promised to
// clients.
func WithTargetDimension(dim int) Option {
	return func(c *clientConfig) { c.targetDimension = dim }
}

// WithModelName sets the model identifier echoed by /v1/models.
func WithModelName(name string) Option {
	return func(c *clientConfig) {
		if name != "" {
			c.modelName = name
		}
	}
}

// WithMaxInFlight bounds concurrently served embedding requests.
func WithMaxInFlight(n int) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxInFlight = n
		}
	}
}

// WithRequestTimeout bounds the time spent on a single request.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithRandSource injects a seedable random source for the degenerate
// vector fallback, making normalization deterministic in tests.
func WithRandSource(rng *rand.Rand) Option {
	return func(c *clientConfig) { c.rng = rng }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
