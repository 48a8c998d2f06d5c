package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// LogFormat selects a log output format.
type LogFormat string

// Supported log formats.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Upstream holds the settings for a remote OpenAI-compatible
// embeddings endpoint.
type Upstream struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// BaseURL returns the endpoint base URL.
func (u Upstream) BaseURL() string { return u.baseURL }

// Model returns the upstream model identifier.
func (u Upstream) Model() string { return u.model }

// APIKey returns the API key.
func (u Upstream) APIKey() string { return u.apiKey }

// Timeout returns the upstream request timeout.
func (u Upstream) Timeout() time.Duration { return u.timeout }

// MaxRetries returns the maximum retry count.
func (u Upstream) MaxRetries() int { return u.maxRetries }

// InitialDelay returns the initial retry delay.
func (u Upstream) InitialDelay() time.Duration { return u.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (u Upstream) BackoffFactor() float64 { return u.backoffFactor }

// IsConfigured reports whether proxy mode is enabled.
func (u Upstream) IsConfigured() bool {
	return u.baseURL != "" && u.model != ""
}

// AppConfig is the immutable application configuration handed to
// constructors. Build one from the environment with LoadConfig, or in
// tests with NewAppConfig plus options.
type AppConfig struct {
	host            string
	port            int
	logLevel        string
	logFormat       LogFormat
	targetDimension int
	modelName       string
	modelDir        string
	maxInFlight     int
	requestTimeout  time.Duration
	httpCacheDir    string
	upstream        Upstream
}

// Host returns the server host to bind to.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// Addr returns the host:port listen address.
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.host, c.port)
}

// LogLevel returns the log verbosity level.
func (c AppConfig) LogLevel() string { return c.logLevel }

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// TargetDimension returns the fixed vector length promised to clients.
func (c AppConfig) TargetDimension() int { return c.targetDimension }

// ModelName returns the served model identifier.
func (c AppConfig) ModelName() string { return c.modelName }

// ModelDir returns the local model directory.
func (c AppConfig) ModelDir() string { return c.modelDir }

// MaxInFlight returns the concurrent request bound.
func (c AppConfig) MaxInFlight() int { return c.maxInFlight }

// RequestTimeout returns the per-request deadline.
func (c AppConfig) RequestTimeout() time.Duration { return c.requestTimeout }

// HTTPCacheDir returns the upstream response cache directory, or ""
// when caching is disabled.
func (c AppConfig) HTTPCacheDir() string { return c.httpCacheDir }

// Upstream returns the remote endpoint settings.
func (c AppConfig) Upstream() Upstream { return c.upstream }

// EnsureModelDir creates the model directory if missing.
func (c AppConfig) EnsureModelDir() error {
	return os.MkdirAll(c.modelDir, 0o755)
}

// LogAttrs returns the config as slog attributes for startup logging.
// Secrets are omitted.
func (c AppConfig) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("addr", c.Addr()),
		slog.Int("target_dimension", c.targetDimension),
		slog.String("model_name", c.modelName),
		slog.String("model_dir", c.modelDir),
		slog.Int("max_in_flight", c.maxInFlight),
		slog.Duration("request_timeout", c.requestTimeout),
		slog.Bool("proxy_mode", c.upstream.IsConfigured()),
	}
}

// AppConfigOption overrides a single AppConfig field.
type AppConfigOption func(*AppConfig)

// WithHost overrides the listen host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort overrides the listen port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// WithTargetDimension overrides the target vector dimension.
func WithTargetDimension(dim int) AppConfigOption {
	return func(c *AppConfig) { c.targetDimension = dim }
}

// WithModelName overrides the served model identifier.
func WithModelName(name string) AppConfigOption {
	return func(c *AppConfig) { c.modelName = name }
}

// WithModelDir overrides the local model directory.
func WithModelDir(dir string) AppConfigOption {
	return func(c *AppConfig) { c.modelDir = dir }
}

// Apply returns a copy of the config with the given overrides.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewAppConfig builds an AppConfig with compiled-in defaults, for use
// in tests and embedders that bypass the environment.
func NewAppConfig(opts ...AppConfigOption) AppConfig {
	cfg := EnvConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		LogLevel:        "INFO",
		LogFormat:       "pretty",
		TargetDimension: 768,
		ModelName:       "nomic-text-embed",
		MaxInFlight:     8,
		RequestTimeout:  60,
	}.Normalize().ToAppConfig()
	return cfg.Apply(opts...)
}

// ToAppConfig converts environment configuration into the immutable
// AppConfig form.
func (e EnvConfig) ToAppConfig() AppConfig {
	format := LogFormatPretty
	if strings.EqualFold(e.LogFormat, string(LogFormatJSON)) {
		format = LogFormatJSON
	}

	return AppConfig{
		host:            e.Host,
		port:            e.Port,
		logLevel:        e.LogLevel,
		logFormat:       format,
		targetDimension: e.TargetDimension,
		modelName:       e.ModelName,
		modelDir:        e.ModelDir,
		maxInFlight:     e.MaxInFlight,
		requestTimeout:  secondsToDuration(e.RequestTimeout, 60*time.Second),
		httpCacheDir:    e.HTTPCacheDir,
		upstream: Upstream{
			baseURL:       e.Upstream.BaseURL,
			model:         e.Upstream.Model,
			apiKey:        e.Upstream.APIKey,
			timeout:       secondsToDuration(e.Upstream.Timeout, 60*time.Second),
			maxRetries:    e.Upstream.MaxRetries,
			initialDelay:  secondsToDuration(e.Upstream.InitialDelay, 2*time.Second),
			backoffFactor: e.Upstream.BackoffFactor,
		},
	}
}

func secondsToDuration(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}
