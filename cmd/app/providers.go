package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/ndelacroix/depanneur/internal/domain/diagnostic"
	"github.com/ndelacroix/depanneur/internal/infra/config"
	"github.com/ndelacroix/depanneur/internal/infra/diagcache"
	"github.com/ndelacroix/depanneur/internal/infra/embedder"
	"github.com/ndelacroix/depanneur/internal/infra/knowledge"
	"github.com/ndelacroix/depanneur/internal/infra/llm/openai"
	"github.com/ndelacroix/depanneur/internal/infra/manualstore"
)

func provideDiagnosticConfig(cfg *config.Config) diagnostic.Config {
	return diagnostic.Config{
		SimilarityThreshold: cfg.Diagnostic.SimilarityThreshold,
		EmbedTimeout:        cfg.Diagnostic.EmbedTimeout,
		CacheTTL:            cfg.Diagnostic.CacheTTL,
		TopRecommendations:  cfg.Diagnostic.TopRecommendations,
		NotFoundMessage:     cfg.Diagnostic.NotFoundMessage,
		NoVectorMessage:     cfg.Diagnostic.NoVectorMessage,
	}
}

func provideEmbedder(cfg *config.Config, logger *slog.Logger) diagnostic.Embedder {
	apiKey := strings.TrimSpace(cfg.Embedding.APIKey)
	if apiKey == "" {
		logger.Info("embedding api key not set, using deterministic embedder")
		return embedder.NewDeterministicEmbedder(cfg.Embedding.Dimension)
	}
	client, err := openai.NewClient(apiKey, cfg.Embedding.BaseURL)
	if err != nil {
		logger.Error("failed to create embedding client, using deterministic embedder", "error", err)
		return embedder.NewDeterministicEmbedder(cfg.Embedding.Dimension)
	}
	logger.Info("embedding api enabled", "model", cfg.Embedding.Model)
	return embedder.NewOpenAIEmbedder(client, cfg.Embedding.Model, cfg.Embedding.Dimension, cfg.Embedding.MaxTokens, logger)
}

func provideRepository(cfg *config.Config, logger *slog.Logger) diagnostic.Repository {
	fallback := knowledge.NewMemoryRepository()
	dsn := strings.TrimSpace(cfg.Knowledge.Postgres.DSN)
	if dsn == "" {
		logger.Info("knowledge postgres dsn not set, using memory repository")
		return fallback
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repository", "error", err)
		return fallback
	}
	if cfg.Knowledge.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Knowledge.Postgres.MaxConns
	}
	if cfg.Knowledge.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Knowledge.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repository", "error", err)
		return fallback
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	repo := knowledge.NewPostgresRepository(pool)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("schema migration failed, using memory repository", "error", err)
		pool.Close()
		return fallback
	}
	logger.Info("knowledge postgres repository enabled")
	return repo
}

func provideCache(cfg *config.Config, logger *slog.Logger) diagnostic.Cache {
	if cfg.Cache.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory cache", "error", err)
			return diagcache.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory cache", "error", err)
			return diagcache.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory cache", "error", err)
		} else {
			logger.Info("valkey cache enabled", "addr", cfg.Cache.Addr)
			return diagcache.NewValkeyStore(client, cfg.Cache.Prefix)
		}
	}
	return diagcache.NewMemoryStore()
}

func provideManualLibrary(cfg *config.Config, logger *slog.Logger) diagnostic.ManualLibrary {
	if !cfg.Manuals.Enabled {
		return manualstore.NewStaticLibrary()
	}
	library, err := manualstore.NewMinioLibrary(
		cfg.Manuals.Endpoint,
		cfg.Manuals.AccessKey,
		cfg.Manuals.SecretKey,
		cfg.Manuals.Region,
		cfg.Manuals.URLExpiry,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize manual store, links pass through unresolved", "error", err)
		return manualstore.NewStaticLibrary()
	}
	logger.Info("manual object store enabled", "endpoint", cfg.Manuals.Endpoint)
	return library
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Cache.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Cache.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Cache.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
