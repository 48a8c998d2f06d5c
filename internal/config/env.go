// Package config provides application configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// EnvConfig holds all environment-based configuration. Field tags map
// directly to environment variable names; nested structs use an
// underscore delimiter (e.g. UPSTREAM_BASE_URL).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// LogLevel is the log verbosity level.
	// Env: LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// TargetDimension is the fixed vector length promised to clients.
	// Env: TARGET_DIMENSION (default: 768)
	TargetDimension int `envconfig:"TARGET_DIMENSION" default:"768"`

	// ModelName is the model identifier reported by /v1/models and
	// echoed when a request omits one.
	// Env: MODEL_NAME (default: nomic-text-embed)
	ModelName string `envconfig:"MODEL_NAME" default:"nomic-text-embed"`

	// ModelDir is the directory holding local ONNX model files.
	// Env: MODEL_DIR
	// Default: ~/.embedd/models
	ModelDir string `envconfig:"MODEL_DIR"`

	// MaxInFlight bounds concurrently served embedding requests.
	// Env: MAX_IN_FLIGHT (default: 8)
	MaxInFlight int `envconfig:"MAX_IN_FLIGHT" default:"8"`

	// RequestTimeout is the per-request deadline in seconds.
	// Env: REQUEST_TIMEOUT (default: 60)
	RequestTimeout float64 `envconfig:"REQUEST_TIMEOUT" default:"60"`

	// HTTPCacheDir is the directory for caching upstream HTTP
	// responses to disk. Only used in proxy mode.
	// Env: HTTP_CACHE_DIR
	HTTPCacheDir string `envconfig:"HTTP_CACHE_DIR"`

	// Upstream configures an OpenAI-compatible upstream; when set,
	// the server proxies inference instead of running a local model.
	Upstream UpstreamEnv `envconfig:"UPSTREAM"`
}

// UpstreamEnv holds environment configuration for a remote
// OpenAI-compatible embeddings endpoint.
type UpstreamEnv struct {
	// BaseURL is the base URL for the endpoint.
	// Env: UPSTREAM_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the upstream model identifier.
	// Env: UPSTREAM_MODEL
	Model string `envconfig:"MODEL"`

	// APIKey is the API key for authentication.
	// Env: UPSTREAM_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the upstream request timeout in seconds.
	// Env: UPSTREAM_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: UPSTREAM_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: UPSTREAM_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: UPSTREAM_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`
}

// LoadFromEnv reads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// Normalize fills derived defaults that envconfig tags cannot express.
func (e EnvConfig) Normalize() EnvConfig {
	if e.ModelDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			e.ModelDir = filepath.Join(home, ".embedd", "models")
		} else {
			e.ModelDir = filepath.Join(".embedd", "models")
		}
	}
	if e.MaxInFlight <= 0 {
		e.MaxInFlight = 8
	}
	if e.TargetDimension <= 0 {
		e.TargetDimension = 768
	}
	return e
}
