package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Diagnostic DiagnosticConfig `yaml:"diagnostic"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge"`
	Cache      CacheConfig      `yaml:"cache"`
	Manuals    ManualsConfig    `yaml:"manuals"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// EmbeddingConfig contains settings for the embedding provider. An empty API
// key selects the offline deterministic embedder.
type EmbeddingConfig struct {
	APIKey    string `yaml:"apiKey"`
	BaseURL   string `yaml:"baseUrl"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	MaxTokens int    `yaml:"maxTokens"`
}

// DiagnosticConfig controls the matching engine behavior.
type DiagnosticConfig struct {
	SimilarityThreshold float64       `yaml:"similarityThreshold"`
	EmbedTimeout        time.Duration `yaml:"embedTimeout"`
	CacheTTL            time.Duration `yaml:"cacheTtl"`
	TopRecommendations  int           `yaml:"topRecommendations"`
	NotFoundMessage     string        `yaml:"notFoundMessage"`
	NoVectorMessage     string        `yaml:"noVectorMessage"`
}

// KnowledgeConfig contains knowledge store connection settings.
type KnowledgeConfig struct {
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// CacheConfig contains connection information for the query cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// ManualsConfig contains object-store settings for tool manuals.
type ManualsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Endpoint  string        `yaml:"endpoint"`
	AccessKey string        `yaml:"accessKey"`
	SecretKey string        `yaml:"secretKey"`
	Region    string        `yaml:"region"`
	URLExpiry time.Duration `yaml:"urlExpiry"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = isTruthy(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("EMBEDDING_DIMENSION"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Embedding.Dimension = parsed
		}
	}
	if v := os.Getenv("DIAG_SIMILARITY_THRESHOLD"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Diagnostic.SimilarityThreshold = parsed
		}
	}
	if v := os.Getenv("DIAG_EMBED_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Diagnostic.EmbedTimeout = parsed
		}
	}
	if v := os.Getenv("DIAG_CACHE_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Diagnostic.CacheTTL = parsed
		}
	}
	if v := os.Getenv("DIAG_RECOMMENDATIONS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Diagnostic.TopRecommendations = parsed
		}
	}
	if v := os.Getenv("DIAG_NOT_FOUND_MESSAGE"); v != "" {
		cfg.Diagnostic.NotFoundMessage = v
	}
	if v := os.Getenv("KNOWLEDGE_POSTGRES_DSN"); v != "" {
		cfg.Knowledge.Postgres.DSN = v
	}
	if v := os.Getenv("KNOWLEDGE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Knowledge.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("KNOWLEDGE_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Knowledge.Postgres.MinConns = int32(parsed)
		}
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = isTruthy(v)
	}
	if v := os.Getenv("CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("MANUALS_ENABLED"); v != "" {
		cfg.Manuals.Enabled = isTruthy(v)
	}
	if v := os.Getenv("MANUALS_ENDPOINT"); v != "" {
		cfg.Manuals.Endpoint = v
	}
	if v := os.Getenv("MANUALS_ACCESS_KEY"); v != "" {
		cfg.Manuals.AccessKey = v
	}
	if v := os.Getenv("MANUALS_SECRET_KEY"); v != "" {
		cfg.Manuals.SecretKey = v
	}
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Embedding: EmbeddingConfig{
			Model:     "text-embedding-3-small",
			Dimension: 1536,
			MaxTokens: 8192,
		},
		Diagnostic: DiagnosticConfig{
			SimilarityThreshold: 0.6,
			EmbedTimeout:        10 * time.Second,
			CacheTTL:            6 * time.Hour,
			TopRecommendations:  10,
		},
		Knowledge: KnowledgeConfig{
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Cache: CacheConfig{
			Prefix: "diag",
		},
		Manuals: ManualsConfig{
			URLExpiry: 15 * time.Minute,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Embedding.Model) == "" {
		return errors.New("embedding.model cannot be empty")
	}
	if c.Embedding.Dimension <= 0 {
		return errors.New("embedding.dimension must be positive")
	}
	if c.Diagnostic.SimilarityThreshold <= 0 || c.Diagnostic.SimilarityThreshold >= 1 {
		return errors.New("diagnostic.similarityThreshold must be in (0, 1)")
	}
	if c.Diagnostic.EmbedTimeout <= 0 {
		return errors.New("diagnostic.embedTimeout must be positive")
	}
	if c.Diagnostic.CacheTTL < 0 {
		return errors.New("diagnostic.cacheTtl cannot be negative")
	}
	if c.Diagnostic.TopRecommendations < 0 {
		return errors.New("diagnostic.topRecommendations cannot be negative")
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Addr) == "" {
		return errors.New("cache.addr cannot be empty when the cache is enabled")
	}
	if c.Manuals.Enabled && strings.TrimSpace(c.Manuals.Endpoint) == "" {
		return errors.New("manuals.endpoint cannot be empty when the manual store is enabled")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	return nil
}
