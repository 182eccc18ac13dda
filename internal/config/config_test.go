package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "memories", cfg.Memory.Collection)
	assert.Equal(t, uint64(1024), cfg.Memory.Dimension)
	assert.Equal(t, "documents", cfg.Document.Collection)
	assert.Equal(t, 100, cfg.Document.MaxBatchSize)
	assert.Equal(t, 5*time.Minute, cfg.Stats.ReportInterval.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("VECTORD_SERVER_PORT", "9999")
	t.Setenv("VECTORD_QDRANT_HOST", "qdrant.internal")
	t.Setenv("VECTORD_QDRANT_API_KEY", "sekrit")
	t.Setenv("VECTORD_MEMORY_DIMENSION", "384")
	t.Setenv("VECTORD_DOCUMENT_MAX_BATCH_SIZE", "50")
	t.Setenv("VECTORD_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, "sekrit", cfg.Qdrant.APIKey.Value())
	assert.Equal(t, uint64(384), cfg.Memory.Dimension)
	assert.Equal(t, 50, cfg.Document.MaxBatchSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 7070
qdrant:
  host: qdrant.local
  request_timeout: 5s
memory:
  collection: custom_memories
  dimension: 768
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "qdrant.local", cfg.Qdrant.Host)
	assert.Equal(t, 5*time.Second, cfg.Qdrant.RequestTimeout.Duration())
	assert.Equal(t, "custom_memories", cfg.Memory.Collection)
	assert.Equal(t, uint64(768), cfg.Memory.Dimension)
	// Untouched keys keep their defaults.
	assert.Equal(t, "documents", cfg.Document.Collection)
}

func TestEnvBeatsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o600))
	t.Setenv("VECTORD_SERVER_PORT", "9999")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}

func TestLoadMissingFileIsFine(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8090, cfg.Server.Port)
}

func TestLoadRejectsWorldReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permissions")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults pass", func(c *Config) {}, ""},
		{"bad server port", func(c *Config) { c.Server.Port = -1 }, "server port"},
		{"bad qdrant port", func(c *Config) { c.Qdrant.Port = 70000 }, "qdrant port"},
		{"missing host", func(c *Config) { c.Qdrant.Host = "" }, "qdrant host"},
		{"zero batch size", func(c *Config) { c.Document.MaxBatchSize = -5 }, "batch size"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("top-secret")
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "top-secret", s.Value())
	assert.True(t, s.IsSet())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"[REDACTED]"`, string(data))

	assert.Equal(t, "", Secret("").String())
	assert.False(t, Secret("").IsSet())
}
