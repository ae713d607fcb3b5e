package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTP.Address)
	require.Equal(t, 0.6, cfg.Diagnostic.SimilarityThreshold)
	require.Equal(t, 10*time.Second, cfg.Diagnostic.EmbedTimeout)
	require.Equal(t, 10, cfg.Diagnostic.TopRecommendations)
	require.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	require.Equal(t, 1536, cfg.Embedding.Dimension)
	require.Equal(t, "diag", cfg.Cache.Prefix)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	payload := []byte(`
http:
  address: ":9090"
diagnostic:
  similarityThreshold: 0.75
  topRecommendations: 5
cache:
  enabled: true
  addr: "localhost:6379"
`)
	require.NoError(t, os.WriteFile(path, payload, 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTP.Address)
	require.Equal(t, 0.75, cfg.Diagnostic.SimilarityThreshold)
	require.Equal(t, 5, cfg.Diagnostic.TopRecommendations)
	require.True(t, cfg.Cache.Enabled)
	require.Equal(t, "localhost:6379", cfg.Cache.Addr)
	// Untouched sections keep their defaults.
	require.Equal(t, 10*time.Second, cfg.Diagnostic.EmbedTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("DIAG_SIMILARITY_THRESHOLD", "0.8")
	t.Setenv("EMBEDDING_DIMENSION", "512")
	t.Setenv("HTTP_ADDRESS", ":7070")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 0.8, cfg.Diagnostic.SimilarityThreshold)
	require.Equal(t, 512, cfg.Embedding.Dimension)
	require.Equal(t, ":7070", cfg.HTTP.Address)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "threshold too high", mutate: func(c *Config) { c.Diagnostic.SimilarityThreshold = 1 }},
		{name: "threshold not positive", mutate: func(c *Config) { c.Diagnostic.SimilarityThreshold = 0 }},
		{name: "empty address", mutate: func(c *Config) { c.HTTP.Address = "" }},
		{name: "zero dimension", mutate: func(c *Config) { c.Embedding.Dimension = 0 }},
		{name: "cache enabled without addr", mutate: func(c *Config) { c.Cache.Enabled = true }},
		{name: "manuals enabled without endpoint", mutate: func(c *Config) { c.Manuals.Enabled = true }},
		{name: "rate limit without rpm", mutate: func(c *Config) { c.HTTP.RateLimit.RequestsPerMinute = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	require.NoError(t, defaultConfig().Validate())
}
