package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewAppConfig_Defaults(t *testing.T) {
	cfg := NewAppConfig()

	require.Equal(t, "0.0.0.0", cfg.Host())
	require.Equal(t, 8080, cfg.Port())
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
	require.Equal(t, 768, cfg.TargetDimension())
	require.Equal(t, "nomic-text-embed", cfg.ModelName())
	require.Equal(t, 8, cfg.MaxInFlight())
	require.Equal(t, 60*time.Second, cfg.RequestTimeout())
	require.Equal(t, LogFormatPretty, cfg.LogFormat())
	require.False(t, cfg.Upstream().IsConfigured())
	require.NotEmpty(t, cfg.ModelDir())
}

func TestAppConfig_Apply(t *testing.T) {
	cfg := NewAppConfig(
		WithHost("127.0.0.1"),
		WithPort(9000),
		WithTargetDimension(384),
		WithModelName("all-minilm"),
		WithModelDir("/tmp/models"),
	)

	require.Equal(t, "127.0.0.1:9000", cfg.Addr())
	require.Equal(t, 384, cfg.TargetDimension())
	require.Equal(t, "all-minilm", cfg.ModelName())
	require.Equal(t, "/tmp/models", cfg.ModelDir())
}

func TestLoadFromEnv_OverridesDefaults(t *testing.T) {
	t.Setenv("HOST", "10.0.0.5")
	t.Setenv("PORT", "3000")
	t.Setenv("TARGET_DIMENSION", "1024")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("UPSTREAM_BASE_URL", "https://api.example.com/v1")
	t.Setenv("UPSTREAM_MODEL", "text-embedding-3-small")
	t.Setenv("UPSTREAM_TIMEOUT", "1.5")

	envCfg, err := LoadFromEnv()
	require.NoError(t, err)
	cfg := envCfg.Normalize().ToAppConfig()

	require.Equal(t, "10.0.0.5:3000", cfg.Addr())
	require.Equal(t, 1024, cfg.TargetDimension())
	require.Equal(t, LogFormatJSON, cfg.LogFormat())
	require.True(t, cfg.Upstream().IsConfigured())
	require.Equal(t, "https://api.example.com/v1", cfg.Upstream().BaseURL())
	require.Equal(t, 1500*time.Millisecond, cfg.Upstream().Timeout())
}

func TestLoadFromEnv_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	_, err := LoadFromEnv()
	require.Error(t, err)
}

func TestNormalize_ClampsNonsense(t *testing.T) {
	cfg := EnvConfig{MaxInFlight: -3, TargetDimension: 0}.Normalize()

	require.Equal(t, 8, cfg.MaxInFlight)
	require.Equal(t, 768, cfg.TargetDimension)
	require.NotEmpty(t, cfg.ModelDir)
}

func TestLoadDotEnv_MissingFileIsNotAnError(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoadConfig_ReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MODEL_NAME=from-dotenv\nPORT=8123\n"), 0o644))

	// Real environment wins over the file.
	t.Setenv("PORT", "8999")
	t.Cleanup(func() {
		// godotenv sets MODEL_NAME in the real environment.
		require.NoError(t, os.Unsetenv("MODEL_NAME"))
	})

	cfg, err := LoadConfig(envFile)
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.ModelName())
	require.Equal(t, 8999, cfg.Port())
}
