package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/embedworks/embedd"
	"github.com/embedworks/embedd/infrastructure/api"
	"github.com/embedworks/embedd/infrastructure/provider"
	"github.com/embedworks/embedd/internal/config"
	"github.com/embedworks/embedd/internal/log"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP embeddings server",
		Long: `Start the HTTP embeddings server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  HOST                 Server host to bind to (default: 0.0.0.0)
  PORT                 Server port to listen on (default: 8080)
  LOG_LEVEL            Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT           Log format: pretty, json (default: pretty)
  TARGET_DIMENSION     Fixed output vector length (default: 768)
  MODEL_NAME           Model name reported to clients (default: nomic-text-embed)
  MODEL_DIR            Directory holding the local ONNX model (default: ~/.embedd/models)
  MAX_IN_FLIGHT        Concurrent inference requests (default: 8)
  REQUEST_TIMEOUT      Per-request timeout in seconds (default: 60)
  HTTP_CACHE_DIR       On-disk cache for upstream HTTP responses

  UPSTREAM_*           Proxy mode: forward inference to a remote endpoint
    BASE_URL           Base URL (e.g., https://api.openai.com/v1)
    MODEL              Upstream model identifier (e.g., text-embedding-3-small)
    API_KEY            API key for authentication
    TIMEOUT            Request timeout in seconds (default: 60)
    MAX_RETRIES        Retry attempts (default: 5)
    INITIAL_DELAY      Initial retry delay in seconds (default: 2)
    BACKOFF_FACTOR     Retry backoff multiplier (default: 2.0)

With UPSTREAM_BASE_URL and UPSTREAM_MODEL set, inference is proxied to
the remote endpoint. Otherwise a local ONNX model is loaded from
MODEL_DIR at startup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}

	// Flags take precedence over env vars.
	cfg = applyServeOverrides(cfg, host, port)

	logger := log.New(cfg)

	attrs := append([]slog.Attr{slog.String("version", version)}, cfg.LogAttrs()...)
	logger.LogAttrs(context.Background(), slog.LevelInfo, "starting embedd", attrs...)

	embedder, err := buildEmbedder(cfg, logger)
	if err != nil {
		return err
	}

	client, err := embedd.New(
		embedd.WithProvider(embedder),
		embedd.WithTargetDimension(cfg.TargetDimension()),
		embedd.WithModelName(cfg.ModelName()),
		embedd.WithMaxInFlight(cfg.MaxInFlight()),
		embedd.WithRequestTimeout(cfg.RequestTimeout()),
		embedd.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create embedd client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close embedd client", slog.Any("error", err))
		}
	}()

	apiServer := api.NewAPIServer(client)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutting down server", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// buildEmbedder selects the inference backend: a remote
// OpenAI-compatible endpoint when UPSTREAM_* is configured, otherwise
// the local ONNX model. The local model is warmed up before the server
// binds so a broken model fails the process instead of the first
// request.
func buildEmbedder(cfg config.AppConfig, logger *slog.Logger) (provider.Embedder, error) {
	upstream := cfg.Upstream()
	if upstream.IsConfigured() {
		logger.Info("using upstream embedding provider",
			slog.String("base_url", upstream.BaseURL()),
			slog.String("model", upstream.Model()),
		)

		openaiCfg := provider.OpenAIConfig{
			APIKey:        upstream.APIKey(),
			BaseURL:       upstream.BaseURL(),
			Model:         upstream.Model(),
			Timeout:       upstream.Timeout(),
			MaxRetries:    upstream.MaxRetries(),
			InitialDelay:  upstream.InitialDelay(),
			BackoffFactor: upstream.BackoffFactor(),
		}
		if cacheDir := cfg.HTTPCacheDir(); cacheDir != "" {
			openaiCfg.Transport = provider.NewCachingTransport(cacheDir, nil)
		}
		return provider.NewOpenAIProviderFromConfig(openaiCfg), nil
	}

	if err := cfg.EnsureModelDir(); err != nil {
		return nil, fmt.Errorf("create model directory: %w", err)
	}

	embedder := provider.NewHugotEmbedding(cfg.ModelDir())
	if !embedder.Available() {
		return nil, fmt.Errorf(
			"no model found in %s and no upstream configured; run download-model or set UPSTREAM_BASE_URL",
			cfg.ModelDir(),
		)
	}

	logger.Info("warming up local model", slog.String("model_dir", cfg.ModelDir()))
	warmupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := embedder.Warmup(warmupCtx); err != nil {
		return nil, fmt.Errorf("load local model: %w", err)
	}

	return embedder, nil
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
