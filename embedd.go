// Package embedd exposes a text-embedding model behind an
// OpenAI-compatible API.
//
// A Client owns the embedding pipeline: a provider generates raw
// vectors, which are normalized to a fixed target dimension before
// being returned. The provider is created once and shared read-only
// across requests.
//
// Basic usage:
//
//	client, err := embedd.New(
//	    embedd.WithProvider(provider.NewHugotEmbedding(modelDir)),
//	    embedd.WithTargetDimension(768),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	vectors, err := client.Embeddings.Generate(ctx, []string{"hello"})
package embedd

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/embedworks/embedd/application/service"
	"github.com/embedworks/embedd/domain/embedding"
)

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("embedd: client is closed")

// Client is the main entry point for the embedd library.
type Client struct {
	// Embeddings runs the per-request pipeline.
	Embeddings *service.Embeddings

	config    *clientConfig
	closeOnce sync.Once
	closeErr  error
}

// New creates a Client from the given options. A provider is required;
// a provider that cannot be constructed is a startup error, never a
// per-request one.
func New(opts ...Option) (*Client, error) {
	cfg := newClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.provider == nil {
		return nil, fmt.Errorf("embedd: no embedding provider configured")
	}

	normalizer, err := embedding.NewNormalizer(cfg.targetDimension, cfg.rng)
	if err != nil {
		return nil, err
	}

	embeddings, err := service.NewEmbeddings(cfg.provider, normalizer,
		service.WithMaxInFlight(cfg.maxInFlight),
		service.WithRequestTimeout(cfg.requestTimeout),
		service.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		Embeddings: embeddings,
		config:     cfg,
	}, nil
}

// Logger returns the client logger.
func (c *Client) Logger() *slog.Logger {
	return c.config.logger
}

// ModelName returns the model identifier advertised to clients.
func (c *Client) ModelName() string {
	return c.config.modelName
}

// RequestTimeout returns the per-request deadline.
func (c *Client) RequestTimeout() time.Duration {
	return c.config.requestTimeout
}

// Close releases the provider. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.config.provider.Close()
	})
	return c.closeErr
}
